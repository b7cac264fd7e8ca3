// Package auth verifies bearer tokens and enforces per-route scopes.
//
// Tokens are JWTs signed with a shared secret (HS256) or an RSA key (RS256)
// and carry roles and scopes claims. Without a configured key the API is
// open and every request acts as Anonymous.
package auth
