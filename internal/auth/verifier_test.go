package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rsaKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "ops-1",
		"roles":  []string{RoleController},
		"scopes": []string{ScopeRead, ScopeControl},
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
}

func TestNewVerifierKeySelection(t *testing.T) {
	_, pub := rsaKeyPair(t)

	_, err := NewVerifier(VerifierConfig{})
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = NewVerifier(VerifierConfig{Secret: "s", PublicKeyPEM: pub})
	assert.Error(t, err)

	_, err = NewVerifier(VerifierConfig{PublicKeyPEM: "not a key"})
	assert.Error(t, err)

	v, err := NewVerifier(VerifierConfig{PublicKeyPEM: pub})
	require.NoError(t, err)
	assert.Equal(t, "RS256", v.method.Alg())
}

func TestVerifyHS256(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: "shared"})
	require.NoError(t, err)

	claims, err := v.VerifyToken(signed(t, jwt.SigningMethodHS256, []byte("shared"), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.Subject)
	assert.True(t, claims.HasScopes(ScopeRead, ScopeControl))
	assert.True(t, claims.HasRole(RoleController))

	_, err = v.VerifyToken(signed(t, jwt.SigningMethodHS256, []byte("other"), validClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRS256(t *testing.T) {
	key, pub := rsaKeyPair(t)
	v, err := NewVerifier(VerifierConfig{PublicKeyPEM: pub})
	require.NoError(t, err)

	_, err = v.VerifyToken(signed(t, jwt.SigningMethodRS256, key, validClaims()))
	require.NoError(t, err)

	// An HS256 token signed with the public key bytes is an algorithm
	// confusion attempt.
	_, err = v.VerifyToken(signed(t, jwt.SigningMethodHS256, []byte(pub), validClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsBadClaims(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: "shared"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"no subject", func(c jwt.MapClaims) { delete(c, "sub") }},
		{"no roles", func(c jwt.MapClaims) { delete(c, "roles") }},
		{"unknown role", func(c jwt.MapClaims) { c["roles"] = []string{"root"} }},
		{"unknown scope", func(c jwt.MapClaims) { c["scopes"] = []string{ScopeRead, "admin"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaims()
			tt.mutate(c)
			_, err := v.VerifyToken(signed(t, jwt.SigningMethodHS256, []byte("shared"), c))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = v.VerifyToken("  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignRoundTrip(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: "shared"})
	require.NoError(t, err)

	tok, err := v.Sign(Claims{Subject: "svc", Roles: []string{RoleViewer}, Scopes: []string{ScopeRead}}, time.Minute, time.Now())
	require.NoError(t, err)
	claims, err := v.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "svc", claims.Subject)

	_, pub := rsaKeyPair(t)
	rs, err := NewVerifier(VerifierConfig{PublicKeyPEM: pub})
	require.NoError(t, err)
	_, err = rs.Sign(Claims{Subject: "svc"}, time.Minute, time.Now())
	assert.Error(t, err)
}

func TestNewVerifierFromFiles(t *testing.T) {
	_, pub := rsaKeyPair(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte(pub), 0o600))

	v, err := NewVerifierFromFiles("", path)
	require.NoError(t, err)
	assert.Equal(t, "RS256", v.method.Alg())

	_, err = NewVerifierFromFiles("", "")
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = NewVerifierFromFiles("", filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
