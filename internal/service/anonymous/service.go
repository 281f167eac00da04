package anonymous

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "feathermart"

var ErrInvalidToken = errors.New("invalid token")

// Claims identify an anonymous shopper. The subject is the anonymous id.
type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// Service issues and verifies signed anonymous session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a fresh anonymous id and a token bound to it.
func (s *Service) Issue(ctx context.Context) (token, anonymousID string, err error) {
	anonymousID = uuid.NewString()
	token, err = s.issueFor(anonymousID)
	if err != nil {
		return "", "", err
	}
	return token, anonymousID, nil
}

func (s *Service) issueFor(anonymousID string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   anonymousID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Kind: "anonymous",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign anonymous token: %w", err)
	}
	return signed, nil
}

// LookupByToken returns the anonymous id carried by a valid token.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Kind != "anonymous" || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
