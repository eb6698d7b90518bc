package params

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
)

func rateDescriptor() Descriptor {
	return Descriptor{Name: "rate", Kind: KindScalar, Type: TypeFloat, Min: Float(0), Max: Float(10), Default: 5.0}
}

func TestResolveRateIsClampedToMax(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	store := newFakeStore(map[string]any{"~rate": "15.0"})
	var rate float64
	host, err := NewRecord(Bind("rate", &rate))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	logger := &captureLogger{}

	report, err := New(WithLogger(logger)).Resolve(context.Background(), set, store, host)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rate != 10.0 {
		t.Fatalf("expected rate clamped to 10, got %v", rate)
	}
	if warnings := report.Warnings(); len(warnings) != 1 || warnings[0].Condition != ConditionOutOfBounds {
		t.Fatalf("expected a single out-of-bounds warning, got %+v", warnings)
	}
	if logger.count("warn") != 1 {
		t.Fatalf("expected one warn log, got %+v", logger.entries)
	}
	outcome, _ := report.Outcome("rate")
	if outcome.State != StateAssigned || outcome.Source != SourceStore || outcome.Key != "~rate" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestResolveScalarWithinBoundsUnchanged(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	for _, v := range []float64{0, 3.5, 10} {
		host := NewMapRecord(set)
		report, err := New().Resolve(context.Background(), set, newFakeStore(map[string]any{"~rate": v}), host)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got, _ := host.Get("rate"); got != v {
			t.Fatalf("expected %v unchanged, got %v", v, got)
		}
		if len(report.Warnings()) != 0 {
			t.Fatalf("expected no warnings for %v, got %+v", v, report.Warnings())
		}
	}
}

func TestResolveMissingRequiredAborts(t *testing.T) {
	set := MustDescriptorSet(
		Descriptor{Name: "before", Type: TypeInt, Default: 1},
		Descriptor{Name: "mode", Kind: KindScalar, Type: TypeString},
		Descriptor{Name: "after", Type: TypeInt, Default: 2},
	)
	store := newFakeStore(nil)
	host := NewMapRecord(set)

	report, err := New().Resolve(context.Background(), set, store, host)
	if !errors.Is(err, ErrMissingRequiredParameter) {
		t.Fatalf("expected missing required parameter, got %v", err)
	}
	var missing *MissingParameterError
	if !errors.As(err, &missing) || missing.Name != "mode" {
		t.Fatalf("expected *MissingParameterError for mode, got %v", err)
	}
	if got, _ := host.Get("before"); got != 1 {
		t.Fatalf("expected earlier parameter to stay resolved, got %v", got)
	}
	if store.countCalls("get ~after") != 0 {
		t.Fatalf("expected later parameters to be skipped, calls %v", store.calls)
	}
	if len(report.Outcomes) != 2 || report.Outcomes[1].State != StateAborted {
		t.Fatalf("expected report to end with aborted outcome, got %+v", report.Outcomes)
	}
}

func TestResolveVectorLimitsClamped(t *testing.T) {
	set := MustDescriptorSet(Descriptor{
		Name: "limits", Kind: KindVector, Type: TypeInt, Min: Float(0), Max: Float(100), Default: []int{0},
	})
	store := newFakeStore(map[string]any{"~limits": []any{-5.0, 50.0, 200.0}})
	var limits []int
	host, _ := NewRecord(Bind("limits", &limits))

	if _, err := New().Resolve(context.Background(), set, store, host); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(limits, []int{0, 50, 100}) {
		t.Fatalf("expected [0 50 100], got %v", limits)
	}
}

func TestResolveBackfillsDefault(t *testing.T) {
	set := MustDescriptorSet(
		rateDescriptor(),
		Descriptor{Name: "frame", Type: TypeString, Default: "map", GlobalScope: true},
	)
	store := newFakeStore(nil)
	host := NewMapRecord(set)
	capture := &activity.CaptureHook{}

	report, err := New(WithActivityHooks(activity.Hooks{capture})).Resolve(context.Background(), set, store, host)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := store.values["~rate"]; got != 5.0 {
		t.Fatalf("expected default written back, got %v", got)
	}
	if got := store.values["/frame"]; got != "map" {
		t.Fatalf("expected global default written back, got %v", got)
	}
	if got, _ := host.Get("rate"); got != 5.0 {
		t.Fatalf("expected host rate 5, got %v", got)
	}
	outcome, _ := report.Outcome("rate")
	if outcome.Source != SourceDefault {
		t.Fatalf("expected default source, got %+v", outcome)
	}

	var verbs []string
	for _, e := range capture.Events {
		verbs = append(verbs, e.Verb)
	}
	want := []string{activity.VerbDefaulted, activity.VerbResolved, activity.VerbDefaulted, activity.VerbResolved}
	if !reflect.DeepEqual(verbs, want) {
		t.Fatalf("expected verbs %v, got %v", want, verbs)
	}
}

func TestResolveConstantNeverMutated(t *testing.T) {
	set := MustDescriptorSet(
		Descriptor{Name: "version", Type: TypeString, Default: "1.0", Constant: true},
	)
	store := newFakeStore(map[string]any{"~version": "2.0", "~robot/version": "3.0"})
	host := NewMapRecord(set)
	logger := &captureLogger{}

	report, err := New(WithNamespace("robot"), WithLogger(logger)).Resolve(context.Background(), set, store, host)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, _ := host.Get("version"); got != "1.0" {
		t.Fatalf("expected constant kept, got %v", got)
	}
	warnings := report.Warnings()
	if len(warnings) != 1 || warnings[0].Condition != ConditionConstantOverride {
		t.Fatalf("expected a single constant override warning, got %+v", warnings)
	}
	if store.countCalls("get") != 0 || store.countCalls("set") != 0 {
		t.Fatalf("expected constant value never read or written, calls %v", store.calls)
	}
	if store.countCalls("has ~version") != 1 {
		t.Fatalf("expected private non-namespaced key checked once, calls %v", store.calls)
	}
	if outcome, _ := report.Outcome("version"); outcome.State != StateConstantKept {
		t.Fatalf("unexpected constant outcome %+v", outcome)
	}
}

func TestResolveConstantWithoutOverrideIsSilent(t *testing.T) {
	set := MustDescriptorSet(Descriptor{Name: "version", Type: TypeString, Default: "1.0", Constant: true})
	report, err := New().Resolve(context.Background(), set, newFakeStore(nil), NewMapRecord(set))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(report.Warnings()) != 0 {
		t.Fatalf("expected no warnings, got %+v", report.Warnings())
	}
}

func TestResolveNamespacedKeys(t *testing.T) {
	set := MustDescriptorSet(
		Descriptor{Name: "rate", Type: TypeFloat, Default: 1.0},
		Descriptor{Name: "frame", Type: TypeString, Default: "map", GlobalScope: true},
	)
	store := newFakeStore(map[string]any{"~robot/rate": 2.0, "/robot/frame": "odom"})
	host := NewMapRecord(set)

	if _, err := New(WithNamespace("/robot/")).Resolve(context.Background(), set, store, host); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, _ := host.Get("rate"); got != 2.0 {
		t.Fatalf("expected namespaced rate, got %v", got)
	}
	if got, _ := host.Get("frame"); got != "odom" {
		t.Fatalf("expected namespaced frame, got %v", got)
	}
}

func TestResolveTypeMismatchFallsBackToDefault(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	store := newFakeStore(map[string]any{"~rate": "fast"})
	host := NewMapRecord(set)
	logger := &captureLogger{}

	report, err := New(WithLogger(logger)).Resolve(context.Background(), set, store, host)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got, _ := host.Get("rate"); got != 5.0 {
		t.Fatalf("expected default 5, got %v", got)
	}
	warnings := report.Warnings()
	if len(warnings) != 1 || warnings[0].Condition != ConditionTypeMismatch {
		t.Fatalf("expected type mismatch warning, got %+v", warnings)
	}
	if outcome, _ := report.Outcome("rate"); outcome.Source != SourceDefault {
		t.Fatalf("expected default source after a mismatch, got %q", outcome.Source)
	}
	if logger.count("error") != 1 {
		t.Fatalf("expected an error-level log, got %+v", logger.entries)
	}
	if store.values["~rate"] != "fast" {
		t.Fatalf("expected malformed store value left in place, got %v", store.values["~rate"])
	}
}

func TestResolveMalformedWithoutDefaultIsDowngraded(t *testing.T) {
	set := MustDescriptorSet(Descriptor{Name: "count", Type: TypeInt})
	host := NewMapRecord(set)

	report, err := New().Resolve(context.Background(), set, newFakeStore(map[string]any{"~count": "many"}), host)
	if err != nil {
		t.Fatalf("expected non-fatal resolution, got %v", err)
	}
	if got, _ := host.Get("count"); got != 0 {
		t.Fatalf("expected zero value, got %#v", got)
	}
	if w := report.Warnings(); len(w) != 1 || w[0].Condition != ConditionUncorrectable {
		t.Fatalf("expected uncorrectable warning, got %+v", w)
	}
	if outcome, _ := report.Outcome("count"); outcome.Source != SourceZero {
		t.Fatalf("expected zero source without a default, got %q", outcome.Source)
	}
}

func TestResolveSurfacesStoreFailures(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	store := newFakeStore(nil)
	store.getErr = errStoreDown

	_, err := New().Resolve(context.Background(), set, store, NewMapRecord(set))
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "get" || !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store failure, got %v", err)
	}

	store = newFakeStore(nil)
	store.setErr = errStoreDown
	_, err = New().Resolve(context.Background(), set, store, NewMapRecord(set))
	if !errors.As(err, &storeErr) || storeErr.Op != "set" {
		t.Fatalf("expected backfill failure, got %v", err)
	}
}

func TestResolveHostRejectsWrongType(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	var rate int
	host, _ := NewRecord(Bind("rate", &rate))

	_, err := New().Resolve(context.Background(), set, newFakeStore(nil), host)
	var fieldErr *FieldTypeError
	if !errors.As(err, &fieldErr) || fieldErr.Name != "rate" {
		t.Fatalf("expected field type error, got %v", err)
	}
}

func TestResolveRejectsNilCollaborators(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	if _, err := New().Resolve(context.Background(), nil, newFakeStore(nil), NewMapRecord(set)); err == nil {
		t.Fatalf("expected nil set rejected")
	}
	if _, err := New().Resolve(context.Background(), set, nil, NewMapRecord(set)); err == nil {
		t.Fatalf("expected nil store rejected")
	}
	if _, err := New().Resolve(context.Background(), set, newFakeStore(nil), nil); err == nil {
		t.Fatalf("expected nil host rejected")
	}
}

func TestResolveEventsCarryActorAndClock(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	capture := &activity.CaptureHook{}
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	engine := New(
		WithActivityHooks(activity.Hooks{capture}),
		WithActivityActor("talker"),
		WithActivityChannel("robot"),
		WithClock(func() time.Time { return at }),
	)

	if _, err := engine.Resolve(context.Background(), set, newFakeStore(map[string]any{"~rate": 20.0}), NewMapRecord(set)); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(capture.Events) != 2 {
		t.Fatalf("expected clamped and resolved events, got %+v", capture.Events)
	}
	clamped := capture.Events[0]
	if clamped.Verb != activity.VerbClamped || clamped.ActorID != "talker" || clamped.Channel != "robot" {
		t.Fatalf("unexpected clamped event %+v", clamped)
	}
	if !clamped.OccurredAt.Equal(at) {
		t.Fatalf("expected clock applied, got %v", clamped.OccurredAt)
	}
	if clamped.Metadata["old_value"] != 20.0 || clamped.Metadata["new_value"] != 10.0 {
		t.Fatalf("unexpected clamped metadata %+v", clamped.Metadata)
	}
}

func TestResolveHookFailureIsNotFatal(t *testing.T) {
	set := MustDescriptorSet(rateDescriptor())
	hook := &activity.CaptureHook{Err: errors.New("sink down")}
	logger := &captureLogger{}

	_, err := New(WithActivityHooks(activity.Hooks{hook}), WithLogger(logger)).
		Resolve(context.Background(), set, newFakeStore(nil), NewMapRecord(set))
	if err != nil {
		t.Fatalf("expected hook failure to be swallowed, got %v", err)
	}
	if logger.count("warn") == 0 {
		t.Fatalf("expected hook failure logged")
	}
}

func TestResolveHugeIntIsClampedToMax(t *testing.T) {
	set := MustDescriptorSet(Descriptor{Name: "n", Type: TypeInt, Min: Float(0), Max: Float(100), Default: 5})
	for raw, want := range map[any]int{1e20: 100, -1e20: 0, "99999999999999999999": 100, "010": 10} {
		host := NewMapRecord(set)
		report, err := New().Resolve(context.Background(), set, newFakeStore(map[string]any{"~n": raw}), host)
		if err != nil {
			t.Fatalf("%v: resolve: %v", raw, err)
		}
		if got, _ := host.Get("n"); got != want {
			t.Fatalf("%v: expected %d, got %#v", raw, want, got)
		}
		outcome, _ := report.Outcome("n")
		if outcome.Source != SourceStore {
			t.Fatalf("%v: expected store source, got %q", raw, outcome.Source)
		}
		if raw == "010" {
			if len(report.Warnings()) != 0 {
				t.Fatalf("expected no warnings for decimal string, got %+v", report.Warnings())
			}
			continue
		}
		if w := report.Warnings(); len(w) != 1 || w[0].Condition != ConditionOutOfBounds {
			t.Fatalf("%v: expected one out-of-bounds warning, got %+v", raw, w)
		}
	}
}
