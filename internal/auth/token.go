package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mickeybyalsky/rfd-api/internal/config"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// malformed input, wrong algorithm. Callers only need to know the token is
// not usable.
var ErrInvalidToken = errors.New("invalid token")

// Claims is what a bearer token carries: who the caller is and how long the
// token lives. There is no revocation; expiry is the only bound.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens. The secret and TTL
// come from config at construction; there is no package-level state.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secret: cfg.JWTSecret,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue signs a token for the given account.
func (s *TokenService) Issue(accountID int, username string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   accountID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns its claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
