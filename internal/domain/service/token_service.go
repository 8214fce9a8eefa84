package service

// TokenService generates the opaque secrets used by the login flows and
// derives session identifiers from bearer tokens. Implementations must use a
// cryptographically secure randomness source.
type TokenService interface {
	// GenerateSessionToken produces an unguessable bearer token with at least
	// 160 bits of entropy in a URL-safe lowercase text form.
	GenerateSessionToken() (string, error)

	// HashSessionToken derives the deterministic storage identifier for a
	// token: SHA-256 over the token's UTF-8 bytes, hex encoded lowercase.
	// It is never invertible and never equals the token itself.
	HashSessionToken(token string) string

	// GenerateState produces the anti-forgery state for one authorization attempt.
	GenerateState() (string, error)

	// GenerateCodeVerifier produces a PKCE code verifier.
	GenerateCodeVerifier() (string, error)

	// CodeChallengeS256 derives the S256 code challenge for a verifier.
	CodeChallengeS256(verifier string) string
}
