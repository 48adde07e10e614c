// Package secrets holds the service's signing and collaborator credentials
// in memory and swaps them atomically on reload (SIGHUP).
package secrets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Well-known secret names.
const (
	KeyJWTSecret  = "RENTMATCH_JWT_SECRET"
	KeyChatAPIKey = "RENTMATCH_CHAT_API_KEY"
)

// Loader retrieves secrets from a source (env vars, file, remote vault, etc.).
type Loader func() (map[string]string, error)

// Vault holds secret values in memory and supports atomic reloading.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault creates a Vault, calling the loader once to populate initial values.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Getter returns a func reading key on every call, for clients that must
// pick up reloaded values.
func (v *Vault) Getter(key string) func() string {
	return func() string { return v.Get(key) }
}

// Require fails if any of keys is missing or empty.
func (v *Vault) Require(keys ...string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var missing []string
	for _, k := range keys {
		if v.values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing secrets: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Keys returns the loaded secret names, sorted.
func (v *Vault) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Redacted returns a masked form of the secret safe for logs.
func (v *Vault) Redacted(key string) string {
	return redact(v.Get(key))
}

func redact(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return s[:2] + "****"
	}
}

// Reload calls the loader and swaps in the new values atomically.
// If the loader returns an error, existing values are preserved.
func (v *Vault) Reload() error {
	newVals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = newVals
	v.mu.Unlock()
	return nil
}

// Chain merges loaders in order; later loaders override earlier ones for
// keys they return with a non-empty value.
func Chain(loaders ...Loader) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string)
		var errs []error
		for _, l := range loaders {
			vals, err := l()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			for k, val := range vals {
				if val != "" {
					out[k] = val
				}
			}
		}
		if len(errs) == len(loaders) && len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}
}
