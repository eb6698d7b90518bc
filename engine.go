package params

import (
	"context"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	namespace     string
	logger        Logger
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	metadata      map[string]any
	observer      RuleObserver
	activityHooks activity.Hooks
	channel       string
	actor         string
	now           func() time.Time
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{
		logger:   noopLogger{},
		observer: noopRuleObserver{},
		channel:  activity.DefaultChannel,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Engine resolves, publishes and imports parameters for one namespace. It
// holds no locks: callers serialise access to the host they pass in.
type Engine struct {
	cfg     engineConfig
	emitter *activity.Emitter
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	cfg := applyOptions(opts)
	return &Engine{
		cfg: cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: true,
			Channel: cfg.channel,
		}),
	}
}

// WithNamespace scopes every non-constant key below namespace.
func WithNamespace(namespace string) Option {
	return func(cfg *engineConfig) {
		cfg.namespace = normalizeNamespace(namespace)
	}
}

// WithEvaluator selects the evaluator used for descriptor rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// WithRuleMetadata exposes metadata to rule expressions as `metadata`.
func WithRuleMetadata(metadata map[string]any) Option {
	return func(cfg *engineConfig) {
		cfg.metadata = copyMetadata(metadata)
	}
}

// WithClock overrides the time source used for rule contexts and events.
func WithClock(now func() time.Time) Option {
	return func(cfg *engineConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// Namespace returns the configured namespace.
func (e *Engine) Namespace() string {
	return e.cfg.namespace
}

// Key returns the fully-qualified store key for d under the engine namespace.
func (e *Engine) Key(d Descriptor) string {
	return KeyFor(e.cfg.namespace, d)
}

func (e *Engine) logger() Logger {
	if e.cfg.logger == nil {
		return noopLogger{}
	}
	return e.cfg.logger
}

func (e *Engine) emit(ctx context.Context, verb string, input activity.ParamEventInput) {
	if !e.emitter.Enabled() {
		return
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = e.cfg.now()
	}
	if input.ActorID == "" {
		input.ActorID = e.cfg.actor
	}
	if err := e.emitter.Emit(ctx, activity.BuildParamEvent(verb, input)); err != nil {
		e.logger().Warn("activity hook failed", "verb", verb, "param", input.Name, "error", err)
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
