package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that carry no channel.
const DefaultChannel = "params"

// Config controls emission defaults.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter is the engine side of the activity pipeline: it stamps the
// channel and hands events to the registered hooks. A nil Emitter is a
// valid disabled emitter.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter builds an emitter. Nil hooks are discarded; with none left, or
// with cfg.Enabled false, the emitter is disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	em := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if em.channel == "" {
		em.channel = DefaultChannel
	}
	if !cfg.Enabled {
		return em
	}
	for _, hook := range hooks {
		if hook != nil {
			em.hooks = append(em.hooks, hook)
		}
	}
	return em
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.hooks.Enabled()
}

// Channel returns the channel stamped on events that omit one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit forwards event to all hooks and returns their joined errors.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
