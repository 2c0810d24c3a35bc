package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/klokku/klokku-scheduler/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDetails = errors.New("invalid session details")

// Session holds the credentials of the signed-in user. The blob is owned by
// whoever performs the login; Session only stores it, reads the token from it
// and clears it on logout.
type Session struct {
	storage Storage
	key     string
	clock   utils.Clock
}

func NewSession(storage Storage, key string, clock utils.Clock) *Session {
	return &Session{storage: storage, key: key, clock: clock}
}

type details struct {
	Token string `json:"token"`
}

// Login stores the user details blob. The blob must be a JSON object with a
// string "token" field; other fields are kept as given.
func (s *Session) Login(ctx context.Context, blob []byte) error {
	var d details
	if err := json.Unmarshal(blob, &d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}
	if strings.TrimSpace(d.Token) == "" {
		return fmt.Errorf("%w: token must be a non-empty string", ErrInvalidDetails)
	}
	if err := s.storage.Set(ctx, s.key, string(blob)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	log.Debug("Session stored")
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	if err := s.storage.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	log.Debug("Session cleared")
	return nil
}

// Token returns the bearer token of the stored session. Storage failures and
// malformed blobs are logged and reported as no token.
func (s *Session) Token(ctx context.Context) (string, bool) {
	blob, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		log.Errorf("Failed to read session: %v", err)
		return "", false
	}
	if !ok {
		return "", false
	}

	var d details
	if err := json.Unmarshal([]byte(blob), &d); err != nil {
		log.Errorf("Stored session is not valid JSON: %v", err)
		return "", false
	}
	if d.Token == "" {
		return "", false
	}

	if expiry, ok := Expiry(d.Token); ok && !expiry.After(s.clock.Now()) {
		log.Warnf("Session token expired at %s, the backend will likely reject it", expiry.Format(time.RFC3339))
	}
	return d.Token, true
}

// Expiry reads the exp claim of a JWT without verifying its signature. It
// reports false for opaque tokens and tokens without exp.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		log.Tracef("Session token is not a JWT: %v", err)
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
