package params

import (
	"slices"

	"github.com/goliatone/go-params/pkg/activity"
)

// WithActivityHooks attaches hooks notified for every parameter lifecycle
// event: defaults applied, values clamped, rules failing, publishes and
// snapshots. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	kept := liveHooks(hooks)
	return func(cfg *engineConfig) {
		cfg.activityHooks = kept
	}
}

// WithActivityChannel overrides the channel stamped on emitted events
// (default "params").
func WithActivityChannel(channel string) Option {
	return func(cfg *engineConfig) {
		if channel != "" {
			cfg.channel = channel
		}
	}
}

// WithActivityActor stamps actor on events that carry no actor ID,
// typically the identity of the resolving process.
func WithActivityActor(actor string) Option {
	return func(cfg *engineConfig) {
		cfg.actor = actor
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (e *Engine) ActivityHooks() activity.Hooks {
	if e == nil {
		return nil
	}
	return liveHooks(e.cfg.activityHooks)
}

func liveHooks(hooks activity.Hooks) activity.Hooks {
	kept := slices.DeleteFunc(slices.Clone(hooks), func(hook activity.ActivityHook) bool {
		return hook == nil
	})
	if len(kept) == 0 {
		return nil
	}
	return kept
}
