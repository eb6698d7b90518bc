package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	params "github.com/goliatone/go-params"
)

// ErrKeyRequired is returned for empty keys.
var ErrKeyRequired = errors.New("state: key is required")

// Lister is implemented by stores able to enumerate their keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ListingStore is a params.Store that can also list keys.
type ListingStore interface {
	params.Store
	Lister
}

// Dump returns every key/value pair whose key starts with prefix.
func Dump(ctx context.Context, store ListingStore, prefix string) (map[string]any, error) {
	if store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	keys, err := store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("state: list %q: %w", prefix, err)
	}
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		value, err := store.Get(ctx, key)
		if errors.Is(err, params.ErrNotFound) {
			// deleted between list and read
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("state: get %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// ValidateKey rejects keys that do not carry a scope marker.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	if !strings.HasPrefix(key, "/") && !strings.HasPrefix(key, "~") {
		return fmt.Errorf("state: key %q must start with / or ~", key)
	}
	return nil
}

func filterKeys(keys []string, prefix string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
