package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes one parameter lifecycle occurrence: a default applied, a
// value clamped, a rule rejected, a snapshot written. Identity fields are
// plain strings; sinks that need UUIDs parse them.
type Event struct {
	Verb       string
	ActorID    string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans one event out to several hooks.
type Hooks []ActivityHook

// Enabled reports whether any hook is registered.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and delivers it to every hook, even after one
// fails. Incomplete events are dropped silently.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if !h.Enabled() {
		return nil
	}
	if event = NormalizeEvent(event); !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var err error
	for _, hook := range h {
		if hook != nil {
			err = errors.Join(err, hook.Notify(ctx, event))
		}
	}
	return err
}

// NormalizeEvent trims identity fields, copies metadata and stamps a missing
// timestamp.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
