package params

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
)

// ErrRuleRejected is returned when a rule evaluates to false.
var ErrRuleRejected = errors.New("params: rule rejected value")

// ErrNoEvaluator indicates no evaluator could be built for rules.
var ErrNoEvaluator = errors.New("params: evaluator not configured")

// RuleContext carries the inputs visible to a descriptor rule.
type RuleContext struct {
	Name     string
	Key      string
	Value    any
	Params   map[string]any
	Metadata map[string]any
	Now      *time.Time
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Params == nil {
		ctx.Params = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// variables flattens the context into the names rules can reference.
// Resolved parameters are exposed both under `params` and at top level;
// the reserved names win on collision.
func (ctx RuleContext) variables() map[string]any {
	vars := make(map[string]any, len(ctx.Params)+6)
	for key, value := range ctx.Params {
		vars[key] = value
	}
	vars["value"] = ctx.Value
	vars["name"] = ctx.Name
	vars["key"] = ctx.Key
	vars["params"] = ctx.Params
	vars["metadata"] = ctx.Metadata
	vars["now"] = ctx.timestamp()
	return vars
}

// Evaluator executes rule expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// RuleError captures evaluator metadata alongside the originating error.
type RuleError struct {
	Engine string
	Expr   string
	Param  string
	Err    error
}

func (e *RuleError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: %s rule %s param=%s: %v", e.Engine, describeExpression(e.Expr), e.Param, e.Err)
}

func (e *RuleError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapRuleError(engine, expr, param string, err error) error {
	if err == nil {
		return nil
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		if ruleErr.Engine == "" {
			ruleErr.Engine = engine
		}
		if ruleErr.Expr == "" {
			ruleErr.Expr = expr
		}
		if ruleErr.Param == "" {
			ruleErr.Param = param
		}
		return ruleErr
	}
	return &RuleError{Engine: engine, Expr: expr, Param: param, Err: err}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*params.exprEvaluator":
		return "expr"
	case "*params.celEvaluator":
		return "cel"
	case "*params.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}

func (e *Engine) resolveEvaluator() (Evaluator, error) {
	if e.cfg.evaluator != nil {
		return e.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if e.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(e.cfg.programCache))
	}
	if e.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(e.cfg.functions))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	e.cfg.evaluator = evaluator
	return evaluator, nil
}

// checkRule evaluates d.Rule against value. A nil return means the value is
// accepted.
func (e *Engine) checkRule(d Descriptor, key string, value any, resolved map[string]any) error {
	if d.Rule == "" {
		return nil
	}
	evaluator, err := e.resolveEvaluator()
	if err != nil {
		return err
	}
	now := e.cfg.now()
	ctx := RuleContext{
		Name:     d.Name,
		Key:      key,
		Value:    value,
		Params:   resolved,
		Metadata: e.cfg.metadata,
		Now:      &now,
	}.withDefaults()

	engine := evaluatorEngineName(evaluator)
	started := time.Now()
	result, err := evaluator.Evaluate(ctx, d.Rule)
	if e.cfg.observer != nil {
		e.cfg.observer.ObserveRule(RuleEvaluation{
			Engine:   engine,
			Expr:     d.Rule,
			Param:    d.Name,
			Duration: time.Since(started),
			Err:      err,
		})
	}
	if err != nil {
		return wrapRuleError(engine, d.Rule, d.Name, err)
	}
	ok, isBool := result.(bool)
	if !isBool {
		return wrapRuleError(engine, d.Rule, d.Name, fmt.Errorf("rule returned %T, want bool", result))
	}
	if !ok {
		return wrapRuleError(engine, d.Rule, d.Name, ErrRuleRejected)
	}
	return nil
}

// applyRule runs the rule check and substitutes the default on rejection.
func (e *Engine) applyRule(ctx context.Context, d Descriptor, key string, value any, resolved map[string]any) (any, []Warning) {
	err := e.checkRule(d, key, value, resolved)
	if err == nil {
		return value, nil
	}
	if d.Default == nil {
		e.logger().Warn("rule rejected value and no default is available, keeping value",
			"param", d.Name, "rule", d.Rule, "error", err)
		e.emit(ctx, activity.VerbRuleFailed, activity.ParamEventInput{Name: d.Name, Key: key, NewValue: value, Reason: err.Error()})
		return value, []Warning{{
			Condition: ConditionRuleFailed,
			Param:     d.Name,
			Message:   fmt.Sprintf("Parameter %s failed rule %q and cannot be corrected: %v", d.Name, d.Rule, err),
		}}
	}
	fallback, _ := Clamp(cloneValue(d.Default), d)
	e.logger().Error("rule rejected value, using default value instead",
		"param", d.Name, "rule", d.Rule, "error", err)
	e.emit(ctx, activity.VerbRuleFailed, activity.ParamEventInput{Name: d.Name, Key: key, OldValue: value, NewValue: fallback, Reason: err.Error()})
	return fallback, []Warning{{
		Condition: ConditionRuleFailed,
		Param:     d.Name,
		Message:   fmt.Sprintf("Parameter %s failed rule %q. Using default value instead: %v", d.Name, d.Rule, err),
	}}
}
