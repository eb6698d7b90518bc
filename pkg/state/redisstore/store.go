// Package redisstore persists parameters in Redis as JSON strings.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	defaultRetries   = 3
	defaultBackoff   = 50 * time.Millisecond
	defaultScanCount = 100
)

// Client is the subset of redis.UniversalClient the store needs.
type Client interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every Redis key, e.g. "params:".
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRetry bounds retries of transient Redis failures. Zero retries
// disables retrying.
func WithRetry(retries uint64, base time.Duration) Option {
	return func(s *Store) {
		s.retries = retries
		if base > 0 {
			s.backoff = base
		}
	}
}

// Store is a params.Store backed by Redis.
type Store struct {
	client  Client
	prefix  string
	retries uint64
	backoff time.Duration
}

var _ state.ListingStore = (*Store)(nil)

// New wraps client. The client is owned by the caller.
func New(client Client, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redisstore: client cannot be nil")
	}
	s := &Store{client: client, retries: defaultRetries, backoff: defaultBackoff}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	if err := state.ValidateKey(key); err != nil {
		return false, err
	}
	var n int64
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.client.Exists(ctx, s.prefix+key).Result()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("redisstore: exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (s *Store) Get(ctx context.Context, key string) (any, error) {
	if err := state.ValidateKey(key); err != nil {
		return nil, err
	}
	var raw string
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.client.Get(ctx, s.prefix+key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, params.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %q: %w", key, err)
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("redisstore: decode %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value any) error {
	if err := state.ValidateKey(key); err != nil {
		return err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redisstore: encode %q: %w", key, err)
	}
	err = s.do(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, s.prefix+key, payload, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redisstore: set %q: %w", key, err)
	}
	return nil
}

// Keys scans for keys starting with prefix, returned without the store
// prefix.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(s.prefix+prefix) + "*"
	var (
		cursor uint64
		out    []string
	)
	for {
		var batch []string
		err := s.do(ctx, func(ctx context.Context) error {
			var err error
			batch, cursor, err = s.client.Scan(ctx, cursor, match, defaultScanCount).Result()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("redisstore: scan %q: %w", prefix, err)
		}
		for _, key := range batch {
			out = append(out, strings.TrimPrefix(key, s.prefix))
		}
		if cursor == 0 {
			return out, nil
		}
	}
}

// do runs fn, retrying failures other than a missing key or a cancelled
// context.
func (s *Store) do(ctx context.Context, fn func(context.Context) error) error {
	if s.retries == 0 {
		return fn(ctx)
	}
	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil || errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return err
		}
		return retry.RetryableError(err)
	})
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
