package params

import (
	"context"
	"fmt"

	"github.com/goliatone/go-params/pkg/activity"
)

// Publish writes the current host value of every non-constant descriptor to
// its fully-qualified store key. Writes are unconditional and independent
// per key; the first failing write stops the pass. Constants are never
// published.
func (e *Engine) Publish(ctx context.Context, set *DescriptorSet, host Host, store Store) error {
	if err := checkCollaborators(set, store, host); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, d := range set.Descriptors() {
		if d.Constant {
			continue
		}
		value, ok := host.Get(d.Name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, d.Name)
		}
		key := e.Key(d)
		if err := store.Set(ctx, key, value); err != nil {
			return &StoreError{Op: "set", Key: key, Err: err}
		}
		e.logger().Debug("parameter published", "param", d.Name, "key", key)
		e.emit(ctx, activity.VerbPublished, activity.ParamEventInput{Name: d.Name, Key: key, NewValue: value})
	}
	return nil
}
