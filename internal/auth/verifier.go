//
//
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier errors.
var (
	ErrNoKey        = errors.New("no verification key configured")
	ErrInvalidToken = errors.New("invalid token")
)

// VerifierConfig selects the signing key. Exactly one of Secret (HS256) and
// PublicKeyPEM (RS256) must be set.
type VerifierConfig struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
	Leeway       time.Duration
}

// tokenClaims is the wire form of a bearer token.
type tokenClaims struct {
	Roles  []string `json:"roles"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens.
type Verifier struct {
	method jwt.SigningMethod
	key    interface{}
	parser *jwt.Parser
}

// NewVerifier builds a verifier from config.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	v := &Verifier{}
	switch {
	case cfg.Secret != "" && cfg.PublicKeyPEM != "":
		return nil, fmt.Errorf("both a secret and a public key are configured")
	case cfg.Secret != "":
		v.method = jwt.SigningMethodHS256
		v.key = []byte(cfg.Secret)
	case cfg.PublicKeyPEM != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		v.method = jwt.SigningMethodRS256
		v.key = pub
	default:
		return nil, ErrNoKey
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// NewVerifierFromFiles builds a verifier from a secret or a PEM file path.
// It returns ErrNoKey when both are empty.
func NewVerifierFromFiles(secret, publicKeyFile string) (*Verifier, error) {
	cfg := VerifierConfig{Secret: secret}
	if publicKeyFile != "" {
		pem, err := os.ReadFile(publicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
		cfg.PublicKeyPEM = string(pem)
	}
	return NewVerifier(cfg)
}

// VerifyToken validates signature, expiry and claims.
func (v *Verifier) VerifyToken(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var tc tokenClaims
	_, err := v.parser.ParseWithClaims(raw, &tc, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if tc.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if err := checkKnown(tc.Roles, validRoles); err != nil {
		return nil, fmt.Errorf("%w: roles: %w", ErrInvalidToken, err)
	}
	if err := checkKnown(tc.Scopes, validScopes); err != nil {
		return nil, fmt.Errorf("%w: scopes: %w", ErrInvalidToken, err)
	}

	return &Claims{Subject: tc.Subject, Roles: tc.Roles, Scopes: tc.Scopes}, nil
}

// Sign issues a token for claims valid for ttl. Only HS256 verifiers can
// sign; it is used by the token helper and tests.
func (v *Verifier) Sign(c Claims, ttl time.Duration, now time.Time) (string, error) {
	if v.method != jwt.SigningMethodHS256 {
		return "", fmt.Errorf("signing requires a shared secret")
	}
	tc := tokenClaims{
		Roles:  c.Roles,
		Scopes: c.Scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(v.method, tc).SignedString(v.key)
}

var (
	validRoles  = map[string]bool{RoleViewer: true, RoleController: true}
	validScopes = map[string]bool{ScopeRead: true, ScopeControl: true, ScopeTelemetry: true}
)

func checkKnown(values []string, known map[string]bool) error {
	if len(values) == 0 {
		return fmt.Errorf("none granted")
	}
	for _, v := range values {
		if !known[v] {
			return fmt.Errorf("unknown value %q", v)
		}
	}
	return nil
}
