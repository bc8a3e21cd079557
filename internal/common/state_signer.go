package common

import (
	"errors"
	"fmt"
	"time"

	"gatehouse/internal/constants"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrStateInvalid = errors.New("invalid oauth state")
	ErrStateReused  = errors.New("oauth state already used")
)

// StateSigner issues single-use OAuth state tokens. Used token ids are kept
// in the cache until the token would have expired anyway.
type StateSigner struct {
	secretKey []byte
	used      *CacheService
	ttl       time.Duration
	now       func() time.Time
}

func NewStateSigner(secretKey []byte, used *CacheService, ttl time.Duration) *StateSigner {
	return &StateSigner{secretKey: secretKey, used: used, ttl: ttl, now: time.Now}
}

// Issue returns a signed state that remembers where to send the user after
// login.
func (s *StateSigner) Issue(returnTo string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"jti":       uuid.New().String(),
		"return_to": returnTo,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Consume validates state and marks it used. It returns the return_to claim.
func (s *StateSigner) Consume(state string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", fmt.Errorf("%w: missing jti", ErrStateInvalid)
	}
	if !s.used.Add(string(constants.CachePrefixOAuthState)+jti, true, s.ttl) {
		return "", ErrStateReused
	}

	returnTo, _ := claims["return_to"].(string)
	return returnTo, nil
}
