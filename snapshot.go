package params

import (
	"context"
	"fmt"
	"sort"

	"github.com/goliatone/go-params/pkg/activity"
)

// GroupsKey is the structural snapshot entry that is always ignored.
const GroupsKey = "groups"

// ApplySnapshot assigns snapshot values directly to host fields without
// coercion or clamping. Every key is checked before any field changes: an
// unknown key fails with *UnknownParameterError and leaves host untouched.
// If host rejects a value, fields already written are restored.
func (e *Engine) ApplySnapshot(ctx context.Context, snapshot map[string]any, host Host) error {
	if host == nil {
		return fmt.Errorf("params: host is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		if name == GroupsKey {
			continue
		}
		if !host.Has(name) {
			e.logger().Error("snapshot rejected", "param", name, "error", ErrUnknownParameter)
			return &UnknownParameterError{Name: name}
		}
		names = append(names, name)
	}
	sort.Strings(names)

	type previous struct {
		name  string
		value any
	}
	applied := make([]previous, 0, len(names))
	for _, name := range names {
		old, _ := host.Get(name)
		if err := host.Set(name, snapshot[name]); err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = host.Set(applied[i].name, applied[i].value)
			}
			e.logger().Error("snapshot rejected by host", "param", name, "error", err)
			return err
		}
		applied = append(applied, previous{name: name, value: old})
	}

	e.logger().Debug("snapshot applied", "count", len(names))
	e.emit(ctx, activity.VerbSnapshotApplied, activity.ParamEventInput{
		Metadata: map[string]any{"params": names},
	})
	return nil
}
