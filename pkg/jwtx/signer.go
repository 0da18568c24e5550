package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Signer is our interface for anything that can sign JWTs. Rollcall never
// issues tokens in production; signers back tests and local tooling that
// stand in for the auth service.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

// NewSignerEdDSA creates an EdDSA signer from PKCS8 PEM bytes.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	return newEdDSASigner(kid, pemKey)
}

// GenerateSignerEdDSA creates an EdDSA signer around a fresh in-memory key.
// The key never leaves the process; publish PublicJWK to let a verifier
// accept its tokens.
func GenerateSignerEdDSA(kid string) (Signer, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate Ed25519 key: %w", err)
	}
	return edDSASignerFromKey(kid, key), nil
}
