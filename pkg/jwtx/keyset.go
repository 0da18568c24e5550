package jwtx

import (
	"crypto/ed25519"
	"errors"
	"sync"
)

var (
	ErrNoKey        = errors.New("jwtx: key not found")
	ErrNoUsableKeys = errors.New("jwtx: jwks has no usable Ed25519 keys")
)

// KeySet holds the verification keys published by the auth service. It is
// swapped wholesale on refresh and read on every request, so it is guarded
// by an RWMutex.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// AddSigner registers a Signer's public key.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK adds a single Ed25519 JWK.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := j.ed25519Key()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	return nil
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// Len reports how many keys are loaded.
func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// IsReady returns true if at least one key is loaded.
func (k *KeySet) IsReady() bool { return k.Len() > 0 }

// ResetFromJWKS replaces every key with the Ed25519 keys in jwks. Keys of
// other types are skipped. If nothing usable remains the current keys are
// kept and ErrNoUsableKeys is returned, so a bad fetch can't lock everyone
// out.
func (k *KeySet) ResetFromJWKS(jwks JWKS) error {
	next := make(map[string]ed25519.PublicKey, len(jwks.Keys))
	for _, j := range jwks.Keys {
		key, err := j.ed25519Key()
		if err != nil {
			continue
		}
		next[j.Kid] = key
	}
	if len(next) == 0 {
		return ErrNoUsableKeys
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return nil
}
