package jwtx

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net/http"
	"sync"
)

var ErrNoKey = errors.New("jwtx: key not found")

// KeySet holds the Ed25519 verification keys in memory, indexed by kid.
// It's safe for concurrent use; Refresh swaps the whole set atomically.
type KeySet struct {
	mu  sync.RWMutex
	pub map[string]ed25519.PublicKey
}

// NewKeySet returns an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]ed25519.PublicKey)}
}

// Add registers a single key.
func (k *KeySet) Add(kid string, pub ed25519.PublicKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[kid] = pub
}

// Get returns the public key for the given kid.
func (k *KeySet) Get(kid string) (ed25519.PublicKey, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

// IsReady returns true if the KeySet has at least one key loaded.
func (k *KeySet) IsReady() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub) > 0
}

// ResetFromJWKS replaces all keys. Non-Ed25519 entries are ignored so a
// mixed set from the auth service doesn't block startup.
func (k *KeySet) ResetFromJWKS(set JWKS) error {
	next := make(map[string]ed25519.PublicKey, len(set.Keys))
	for _, j := range set.Keys {
		if j.Kty != "OKP" {
			continue
		}
		pub, err := parseEd25519(j)
		if err != nil {
			return err
		}
		next[j.Kid] = pub
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	return nil
}

// Refresh fetches url and resets the set from it.
func (k *KeySet) Refresh(ctx context.Context, client *http.Client, url string) error {
	set, err := FetchJWKS(ctx, client, url)
	if err != nil {
		return err
	}
	return k.ResetFromJWKS(set)
}
