// Package auth resolves session tokens to user identities. Token issuance
// belongs to the platform's auth service; this package only consumes the
// verify side of the contract.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidSession covers unknown, malformed and expired tokens alike.
var ErrInvalidSession = errors.New("invalid or expired session")

// Verifier maps a session token to the owning user id.
type Verifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

const sessionKeyPrefix = "session:"

// sessionRecord is the JSON document the auth service writes under
// session:<token>. Expiry is the key's TTL, so a missing key and an expired
// session are indistinguishable here.
type sessionRecord struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionVerifier resolves opaque session tokens against the shared Redis
// session store.
type SessionVerifier struct {
	client *redis.Client
}

func NewSessionVerifier(client *redis.Client) *SessionVerifier {
	return &SessionVerifier{client: client}
}

func (v *SessionVerifier) Verify(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidSession
	}

	data, err := v.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return 0, ErrInvalidSession
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return 0, ErrInvalidSession
	}
	return record.UserID, nil
}
