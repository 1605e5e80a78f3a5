// Package auth issues and checks operator tokens.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrRevokedToken = errors.New("token revoked")
)

// User is the signed-in operator.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}

type Claims struct {
	Name string `json:"name,omitempty"`
	jwtlib.RegisteredClaims
}

func (c *Claims) User() User {
	return User{Username: c.Subject, Name: c.Name}
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

func (s *Service) GenerateToken(u User) (string, error) {
	now := s.now()
	claims := Claims{
		Name: u.Name,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.Username,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if s.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke rejects the token until it would have expired anyway.
func (s *Service) Revoke(c *Claims) {
	if c == nil || c.ID == "" {
		return
	}
	exp := s.now().Add(s.ttl)
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.revoked[c.ID] = exp
}

func (s *Service) isRevoked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.revoked[id]
	return ok && s.now().Before(exp)
}

// prune drops entries for tokens that have expired. Caller holds mu.
func (s *Service) prune() {
	now := s.now()
	for id, exp := range s.revoked {
		if !now.Before(exp) {
			delete(s.revoked, id)
		}
	}
}

type ctxKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}
