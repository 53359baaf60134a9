package port

import "context"

// BlobStore retrieves riddle asset blobs by object name.
type BlobStore interface {
	Fetch(ctx context.Context, objectName string) ([]byte, error)
}
