package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsParamEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildParamEvent(activity.VerbDefaulted, activity.ParamEventInput{
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "params",
		Name:       "rate",
		Key:        "~rate",
		NewValue:   5.0,
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.Verb != activity.VerbDefaulted || record.ObjectType != activity.ObjectParameter || record.ObjectID != "rate" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "params" {
		t.Fatalf("expected channel params got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["key"] != "~rate" || record.Data["new_value"] != 5.0 {
		t.Fatalf("expected metadata passthrough got %+v", record.Data)
	}
}

func TestHookNotifyFallsBackToConfiguredActor(t *testing.T) {
	sink := &recordingSink{}
	fallback := uuid.New()
	hook := usersink.Hook{Sink: sink, Actor: fallback}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbPublished,
		ActorID:    "talker-node",
		ObjectType: activity.ObjectParameter,
		ObjectID:   "rate",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != fallback {
		t.Fatalf("expected fallback actor %s, got %s", fallback, record.ActorID)
	}
	if record.Data["actor"] != "talker-node" {
		t.Fatalf("expected raw actor kept in data, got %+v", record.Data)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifySkipsIncompleteEvent(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{})
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}
