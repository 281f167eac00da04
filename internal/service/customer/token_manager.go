package customer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"time"

	"feathermart/internal/domain"
	tokenrepo "feathermart/internal/repository/token"
)

type tokenManager struct {
	repo   tokenrepo.Repository
	now    func() time.Time
	logger *log.Logger
}

func newTokenManager(repo tokenrepo.Repository, logger *log.Logger) *tokenManager {
	return &tokenManager{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// Issue stores a fresh token for userID. Expired tokens of the same user are
// purged first; a failed purge does not block the login.
func (m *tokenManager) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	now := m.now()
	if _, err := m.repo.DeleteExpired(ctx, userID, now); err != nil {
		m.logger.Printf("customer: purge expired tokens user_id=%s error=%v", userID, err)
	}
	expiresAt := now.Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// Validate returns the user id bound to token. Unknown or expired tokens yield
// ErrInvalidToken; storage failures are returned as is.
func (m *tokenManager) Validate(ctx context.Context, token string) (string, error) {
	meta, err := m.repo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if m.now().After(meta.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return "", ErrInvalidToken
	}
	return meta.UserID, nil
}

func (m *tokenManager) Revoke(ctx context.Context, token string) error {
	err := m.repo.Delete(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
