package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-params/pkg/activity"
)

// Resolve reads every descriptor in set from store, falls back to defaults,
// coerces and clamps the values, then assigns them to host.
//
// Descriptors are processed in set order. Recoverable conditions are logged
// and recorded as warnings. A required parameter missing from the store
// aborts the pass with a *MissingParameterError; parameters resolved before
// it keep their assigned values. The returned report is non-nil whenever the
// arguments are valid, including on abort.
func (e *Engine) Resolve(ctx context.Context, set *DescriptorSet, store Store, host Host) (*Report, error) {
	if err := checkCollaborators(set, store, host); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	report := &Report{Namespace: e.cfg.namespace}
	resolved := make(map[string]any, set.Len())
	for _, d := range set.Descriptors() {
		outcome, err := e.resolveOne(ctx, d, store, host, resolved)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (e *Engine) resolveOne(ctx context.Context, d Descriptor, store Store, host Host, resolved map[string]any) (Outcome, error) {
	if d.Constant {
		return e.checkConstant(ctx, d, store)
	}

	key := e.Key(d)
	outcome := Outcome{Name: d.Name, Key: key, State: StateUnresolved}

	raw, err := store.Get(ctx, key)
	outcome.State = StateStoreChecked
	switch {
	case errors.Is(err, ErrNotFound):
		if d.Default == nil {
			outcome.State = StateAborted
			e.logger().Error("required parameter is missing", "param", d.Name, "key", key)
			return outcome, &MissingParameterError{Name: d.Name, Key: key}
		}
		e.logger().Info("parameter is not yet set, setting default value", "param", d.Name, "key", key)
		raw = cloneValue(d.Default)
		if err := store.Set(ctx, key, raw); err != nil {
			outcome.State = StateAborted
			return outcome, &StoreError{Op: "set", Key: key, Err: err}
		}
		e.emit(ctx, activity.VerbDefaulted, activity.ParamEventInput{Name: d.Name, Key: key, NewValue: raw})
		outcome.Source = SourceDefault
		outcome.State = StateDefaultApplied
	case err != nil:
		outcome.State = StateAborted
		return outcome, &StoreError{Op: "get", Key: key, Err: err}
	default:
		outcome.Source = SourceStore
		outcome.State = StateStoreValueUsed
	}

	value, fallback, warnings := e.coerceOrFallback(ctx, d, key, raw)
	outcome.Warnings = append(outcome.Warnings, warnings...)
	if fallback != "" {
		outcome.Source = fallback
	}
	outcome.State = StateCoerced

	clamped, warnings := Clamp(value, d)
	if len(warnings) > 0 {
		for _, w := range warnings {
			e.logger().Warn(w.Message, "param", d.Name, "key", key)
		}
		e.emit(ctx, activity.VerbClamped, activity.ParamEventInput{Name: d.Name, Key: key, OldValue: value, NewValue: clamped})
		outcome.Warnings = append(outcome.Warnings, warnings...)
	}
	outcome.State = StateBoundsChecked

	final, warnings := e.applyRule(ctx, d, key, clamped, resolved)
	outcome.Warnings = append(outcome.Warnings, warnings...)

	if err := host.Set(d.Name, final); err != nil {
		outcome.State = StateAborted
		return outcome, fmt.Errorf("params: assign %s: %w", d.Name, err)
	}
	resolved[d.Name] = final
	outcome.Value = final
	outcome.State = StateAssigned
	e.logger().Debug("parameter resolved", "param", d.Name, "key", key, "source", string(outcome.Source))
	e.emit(ctx, activity.VerbResolved, activity.ParamEventInput{Name: d.Name, Key: key, NewValue: final})
	return outcome, nil
}

// coerceOrFallback coerces raw, substituting the default on a mismatch. With
// no default the zero value of the declared type is used. The returned
// source is empty unless a substitute was used.
func (e *Engine) coerceOrFallback(ctx context.Context, d Descriptor, key string, raw any) (any, Source, []Warning) {
	result, err := Coerce(raw, d)
	if err == nil {
		return result.Value, "", result.Warnings
	}
	e.emit(ctx, activity.VerbTypeMismatch, activity.ParamEventInput{Name: d.Name, Key: key, OldValue: raw, Reason: err.Error()})
	if d.Default == nil {
		e.logger().Warn("parameter is set, but has a different type and no default to fall back to",
			"param", d.Name, "key", key, "error", err)
		return zeroValue(d), SourceZero, []Warning{{
			Condition: ConditionUncorrectable,
			Param:     d.Name,
			Message:   fmt.Sprintf("Parameter %s is set, but has a different type and cannot be corrected.", d.Name),
		}}
	}
	e.logger().Error("parameter is set, but has a different type, using default value instead",
		"param", d.Name, "key", key, "error", err)
	return cloneValue(d.Default), SourceDefault, []Warning{{
		Condition: ConditionTypeMismatch,
		Param:     d.Name,
		Message:   fmt.Sprintf("Parameter %s is set, but has a different type. Using default value instead.", d.Name),
	}}
}

// checkConstant reports an override attempt for a constant parameter. The
// store is never read or written for its value and the host is untouched.
func (e *Engine) checkConstant(ctx context.Context, d Descriptor, store Store) (Outcome, error) {
	key := PrivateKey(d.Name)
	outcome := Outcome{Name: d.Name, Key: key, Source: SourceConstant, State: StateUnresolved, Value: cloneValue(d.Default)}

	present, err := store.Has(ctx, key)
	if err != nil {
		outcome.State = StateAborted
		return outcome, &StoreError{Op: "has", Key: key, Err: err}
	}
	if present {
		msg := fmt.Sprintf("Parameter %s was set on the parameter server even though it was defined to be constant.", d.Name)
		e.logger().Warn(msg, "param", d.Name, "key", key)
		e.emit(ctx, activity.VerbOverrideIgnored, activity.ParamEventInput{Name: d.Name, Key: key, Reason: ErrConstantOverride.Error()})
		outcome.Warnings = []Warning{{Condition: ConditionConstantOverride, Param: d.Name, Message: msg}}
	}
	outcome.State = StateConstantKept
	return outcome, nil
}

func checkCollaborators(set *DescriptorSet, store Store, host Host) error {
	switch {
	case set == nil:
		return fmt.Errorf("params: descriptor set is nil")
	case store == nil:
		return fmt.Errorf("params: store is nil")
	case host == nil:
		return fmt.Errorf("params: host is nil")
	}
	return nil
}
