package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	goredis "github.com/redis/go-redis/v9"

	"github.com/raetselonkel/labyrinth/internal/core/port"
	"github.com/raetselonkel/labyrinth/internal/repository"
)

const sessionTTL = 5 * time.Minute

// WebauthnSessionStore keeps WebAuthn ceremony state in Redis so a
// challenge survives across instances but expires quickly.
type WebauthnSessionStore struct {
	client *goredis.Client
}

var _ port.WebauthnSessionStore = (*WebauthnSessionStore)(nil)

func NewWebauthnSessionStore(client *goredis.Client) *WebauthnSessionStore {
	return &WebauthnSessionStore{client: client}
}

func sessionKey(purpose, username string) string {
	return fmt.Sprintf("labyrinth:webauthn:%s:%s", purpose, username)
}

func (s *WebauthnSessionStore) Save(ctx context.Context, purpose, username string, session *webauthn.SessionData) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode webauthn session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(purpose, username), payload, sessionTTL).Err(); err != nil {
		return fmt.Errorf("store webauthn session: %w", err)
	}
	return nil
}

func (s *WebauthnSessionStore) Take(ctx context.Context, purpose, username string) (*webauthn.SessionData, error) {
	payload, err := s.client.GetDel(ctx, sessionKey(purpose, username)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load webauthn session: %w", err)
	}

	var session webauthn.SessionData
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode webauthn session: %w", err)
	}
	return &session, nil
}
