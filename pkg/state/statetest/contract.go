// Package statetest runs the shared params.Store contract against a backend.
package statetest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/state"
)

// Factory builds an empty store for one subtest.
type Factory func(t *testing.T) params.Store

type contractCase struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Preset any    `json:"preset"`
}

type contractFixture struct {
	Description string         `json:"description"`
	Cases       []contractCase `json:"cases"`
}

// Run exercises Has, Get and Set semantics on stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()
	fx := loadFixture(t)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		store := factory(t)
		if ok, err := store.Has(ctx, "~absent"); err != nil || ok {
			t.Fatalf("expected absent key, got ok=%t err=%v", ok, err)
		}
		if _, err := store.Get(ctx, "~absent"); !errors.Is(err, params.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			store := factory(t)
			if tc.Preset != nil {
				if err := store.Set(ctx, tc.Key, tc.Preset); err != nil {
					t.Fatalf("preset: %v", err)
				}
			}
			if err := store.Set(ctx, tc.Key, tc.Value); err != nil {
				t.Fatalf("set: %v", err)
			}
			ok, err := store.Has(ctx, tc.Key)
			if err != nil || !ok {
				t.Fatalf("expected key present, got ok=%t err=%v", ok, err)
			}
			got, err := store.Get(ctx, tc.Key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !sameJSON(t, got, tc.Value) {
				t.Fatalf("expected %v, got %#v", tc.Value, got)
			}
		})
	}

	t.Run("dump by prefix", func(t *testing.T) {
		store := factory(t)
		lister, ok := store.(state.ListingStore)
		if !ok {
			t.Skip("store does not list keys")
		}
		for key, value := range map[string]any{"~robot/a": 1, "~robot/b": 2, "/other": 3} {
			if err := store.Set(ctx, key, value); err != nil {
				t.Fatalf("set %s: %v", key, err)
			}
		}
		dump, err := state.Dump(ctx, lister, "~robot/")
		if err != nil {
			t.Fatalf("dump: %v", err)
		}
		if len(dump) != 2 || !sameJSON(t, dump["~robot/b"], 2) {
			t.Fatalf("unexpected dump %v", dump)
		}
	})
}

func sameJSON(t *testing.T, a, b any) bool {
	t.Helper()
	left, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	right, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(left) == string(right)
}

func loadFixture(t *testing.T) contractFixture {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to resolve contract fixture path")
	}
	raw, err := os.ReadFile(filepath.Join(filepath.Dir(file), "testdata", "store_contract.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var fx contractFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return fx
}
