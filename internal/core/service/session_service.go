package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

const (
	sessionIssuer  = "customer-portal"
	signingInfo    = "customer-portal session signing"
	sealingInfo    = "customer-portal bearer sealing"
	defaultSession = 24 * time.Hour
)

// sessionClaims is the JWT body. Tok holds the sealed backend bearer token.
type sessionClaims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	Tok   string   `json:"tok"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies the portal's session tokens.
type SessionService struct {
	signKey     []byte
	sealKey     []byte
	ttl         time.Duration
	revocations ports.RevocationStore
	log         zerolog.Logger
	now         func() time.Time
}

func NewSessionService(secret string, ttl time.Duration, revocations ports.RevocationStore, log zerolog.Logger) (*SessionService, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = defaultSession
	}

	signKey, err := deriveKey(secret, signingInfo, 32)
	if err != nil {
		return nil, err
	}
	sealKey, err := deriveKey(secret, sealingInfo, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}

	return &SessionService{
		signKey:     signKey,
		sealKey:     sealKey,
		ttl:         ttl,
		revocations: revocations,
		log:         log,
		now:         time.Now,
	}, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// Issue mints a session token for a successful credential exchange. The
// session lives for the backend token lifetime, capped by the configured TTL.
func (s *SessionService) Issue(_ context.Context, auth *domain.Authenticated) (string, *domain.Session, error) {
	if auth == nil || auth.BearerToken == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	ttl := s.ttl
	if auth.ExpiresIn > 0 && auth.ExpiresIn < ttl {
		ttl = auth.ExpiresIn
	}
	// NumericDate has second precision.
	now := s.now().UTC().Truncate(time.Second)

	sess := &domain.Session{
		ID:          uuid.NewString(),
		UserID:      auth.User.ID,
		Username:    auth.User.Username,
		BearerToken: auth.BearerToken,
		Roles:       auth.User.Roles.Clone(),
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}

	sealed, err := s.seal(sess.BearerToken, sess.ID)
	if err != nil {
		return "", nil, err
	}

	claims := sessionClaims{
		Name:  sess.Username,
		Roles: sess.Roles,
		Tok:   sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, sess, nil
}

// Parse verifies a session token and returns the session it carries.
func (s *SessionService) Parse(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrSessionExpired
		}
		return nil, domain.ErrUnauthorized
	}
	if claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	bearer, err := s.open(claims.Tok, claims.ID)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", claims.ID).Msg("revocation check failed")
		return nil, domain.ErrUnauthorized
	}
	if revoked {
		return nil, domain.ErrSessionRevoked
	}

	sess := &domain.Session{
		ID:          claims.ID,
		UserID:      claims.Subject,
		Username:    claims.Name,
		BearerToken: bearer,
		Roles:       domain.RoleSet(claims.Roles).Clone(),
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return sess, nil
}

// Revoke ends a session before its token expires.
func (s *SessionService) Revoke(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	until := sess.ExpiresAt
	if until.IsZero() {
		until = s.now().Add(s.ttl)
	}
	if err := s.revocations.Revoke(ctx, sess.ID, until); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// seal encrypts the bearer token bound to the session id.
func (s *SessionService) seal(plain, sessionID string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return "", fmt.Errorf("seal bearer: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal bearer: %w", err)
	}
	out := aead.Seal(nonce, nonce, []byte(plain), []byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *SessionService) open(sealed, sessionID string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	aead, err := chacha20poly1305.NewX(s.sealKey)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed token too short")
	}
	nonce, box := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, []byte(sessionID))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
