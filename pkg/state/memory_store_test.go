package state_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/goliatone/go-params/pkg/state/statetest"
)

func TestMemoryStoreContract(t *testing.T) {
	statetest.Run(t, func(*testing.T) params.Store {
		return state.NewMemoryStore(nil)
	})
}

func TestMemoryStoreRejectsUnscopedKeys(t *testing.T) {
	store := state.NewMemoryStore(nil)
	if err := store.Set(context.Background(), "rate", 1); err == nil {
		t.Fatalf("expected unscoped key rejected")
	}
	if _, err := store.Get(context.Background(), ""); !errors.Is(err, state.ErrKeyRequired) {
		t.Fatalf("expected ErrKeyRequired, got %v", err)
	}
}

func TestMemoryStoreWithEngine(t *testing.T) {
	set := params.MustDescriptorSet(
		params.Descriptor{Name: "rate", Type: params.TypeFloat, Default: 5.0, Max: params.Float(10)},
		params.Descriptor{Name: "frame", Type: params.TypeString, Default: "map", GlobalScope: true},
	)
	store := state.NewMemoryStore(map[string]any{"~robot/rate": 12.0})
	host := params.NewMapRecord(set)

	if _, err := params.New(params.WithNamespace("robot")).Resolve(context.Background(), set, store, host); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, _ := host.Get("rate"); got != 10.0 {
		t.Fatalf("expected clamped rate, got %v", got)
	}

	dump, err := state.Dump(context.Background(), store, "")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	want := map[string]any{"~robot/rate": 12.0, "/robot/frame": "map"}
	if !reflect.DeepEqual(dump, want) {
		t.Fatalf("expected %v, got %v", want, dump)
	}

	if err := store.Delete(context.Background(), "/robot/frame"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := store.Has(context.Background(), "/robot/frame"); ok {
		t.Fatalf("expected key deleted")
	}
}
