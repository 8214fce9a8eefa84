package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"

	"saasbase/internal/domain/service"

	"github.com/pkg/errors"
)

// Session tokens are base32-encoded so they survive cookie and URL contexts
// without escaping. Lowercase alphabet, no padding.
var sessionTokenEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

const (
	sessionTokenBytes = 20
	oauthSecretBytes  = 32
)

type tokenService struct{}

// NewTokenService creates the random-token and hashing primitives used by the
// auth flows. Tokens never touch storage in raw form; only their SHA-256 hex
// digest is persisted.
func NewTokenService() service.TokenService {
	return &tokenService{}
}

func (s *tokenService) GenerateSessionToken() (string, error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "failed to generate session token")
	}

	return sessionTokenEncoding.EncodeToString(raw), nil
}

func (s *tokenService) HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func (s *tokenService) GenerateState() (string, error) {
	return randomURLSafeSecret()
}

func (s *tokenService) GenerateCodeVerifier() (string, error) {
	return randomURLSafeSecret()
}

func (s *tokenService) CodeChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))

	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func randomURLSafeSecret() (string, error) {
	raw := make([]byte, oauthSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "failed to generate random secret")
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}
