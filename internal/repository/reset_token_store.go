package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

const resetTokenKeyPrefix = "helpdesk:password-reset:"

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	Save(ctx context.Context, token domain.PasswordResetToken) error
	// Consume returns and deletes the token; unknown or expired tokens yield ErrNotFound.
	Consume(ctx context.Context, token string) (*domain.PasswordResetToken, error)
}

type redisResetTokenStore struct {
	client *redis.Client
}

// NewRedisResetTokenStore stores tokens as Redis keys expiring with the token.
func NewRedisResetTokenStore(client *redis.Client) ResetTokenStore {
	return &redisResetTokenStore{client: client}
}

type resetTokenPayload struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *redisResetTokenStore) Save(ctx context.Context, token domain.PasswordResetToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return errors.New("reset token already expired")
	}
	payload, err := json.Marshal(resetTokenPayload{UserID: token.UserID, ExpiresAt: token.ExpiresAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, resetTokenKeyPrefix+token.Token, payload, ttl).Err()
}

func (s *redisResetTokenStore) Consume(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	raw, err := s.client.GetDel(ctx, resetTokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var payload resetTokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode reset token: %w", err)
	}
	if time.Now().After(payload.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &domain.PasswordResetToken{Token: token, UserID: payload.UserID, ExpiresAt: payload.ExpiresAt}, nil
}
