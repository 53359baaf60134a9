package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/infra/config"
)

// ObjectStore serves riddle assets out of a MinIO (or S3 compatible)
// bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

var _ port.BlobStore = (*ObjectStore)(nil)

func NewObjectStore(cfg config.StorageSettings, logger *zap.Logger) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	logger.Info("object store configured",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
	)

	return &ObjectStore{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *ObjectStore) Fetch(ctx context.Context, objectName string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objectName, err)
	}
	return data, nil
}
