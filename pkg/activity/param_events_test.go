package activity

import (
	"testing"
	"time"
)

func TestBuildParamEventCarriesValuesAndKey(t *testing.T) {
	meta := map[string]any{"source": "store"}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := BuildParamEvent(VerbClamped, ParamEventInput{
		ActorID:    " node-1 ",
		Name:       "rate",
		Key:        "~rate",
		OldValue:   15.0,
		NewValue:   10.0,
		Reason:     "above max",
		Metadata:   meta,
		OccurredAt: at,
	})

	if event.Verb != VerbClamped || event.ObjectType != ObjectParameter || event.ObjectID != "rate" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.ActorID != "node-1" {
		t.Fatalf("expected trimmed actor, got %q", event.ActorID)
	}
	if event.Metadata["key"] != "~rate" || event.Metadata["reason"] != "above max" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if event.Metadata["old_value"] != 15.0 || event.Metadata["new_value"] != 10.0 {
		t.Fatalf("expected old/new values, got %+v", event.Metadata)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", event.OccurredAt)
	}
	if _, leaked := meta["key"]; leaked {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
}

func TestBuildParamEventSnapshotFallsBackToObjectType(t *testing.T) {
	event := BuildParamEvent(VerbSnapshotApplied, ParamEventInput{})
	if event.ObjectType != ObjectSnapshot || event.ObjectID != ObjectSnapshot {
		t.Fatalf("expected snapshot object fallback, got %+v", event)
	}
	if event.Metadata != nil {
		t.Fatalf("expected no metadata, got %+v", event.Metadata)
	}
}

func TestBuildParamEventOmitsNilValues(t *testing.T) {
	event := BuildParamEvent(VerbOverrideIgnored, ParamEventInput{Name: "version", Key: "~version"})
	if _, ok := event.Metadata["old_value"]; ok {
		t.Fatalf("expected old_value omitted, got %+v", event.Metadata)
	}
	if _, ok := event.Metadata["new_value"]; ok {
		t.Fatalf("expected new_value omitted, got %+v", event.Metadata)
	}
}
