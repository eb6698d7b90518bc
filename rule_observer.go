package params

import "time"

// RuleEvaluation describes one rule check.
type RuleEvaluation struct {
	Engine   string
	Expr     string
	Param    string
	Duration time.Duration
	Err      error
}

// RuleObserver records rule evaluations, for example as latency metrics.
type RuleObserver interface {
	ObserveRule(RuleEvaluation)
}

// RuleObserverFunc adapts a function to RuleObserver.
type RuleObserverFunc func(RuleEvaluation)

func (f RuleObserverFunc) ObserveRule(event RuleEvaluation) {
	if f != nil {
		f(event)
	}
}

type noopRuleObserver struct{}

func (noopRuleObserver) ObserveRule(RuleEvaluation) {}

// WithRuleObserver attaches an observer notified after every rule check.
func WithRuleObserver(observer RuleObserver) Option {
	return func(cfg *engineConfig) {
		if observer == nil {
			cfg.observer = noopRuleObserver{}
			return
		}
		cfg.observer = observer
	}
}
