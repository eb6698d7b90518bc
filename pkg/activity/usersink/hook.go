// Package usersink forwards parameter activity to a go-users ActivitySink so
// configuration changes land in the same audit trail as user activity.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-params/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts activity events to an ActivitySink. Actor is recorded when the
// event carries no parseable actor ID, typically the identity of the process
// resolving its parameters.
type Hook struct {
	Sink  usertypes.ActivitySink
	Actor uuid.UUID
}

var _ activity.ActivityHook = Hook{}

// Notify maps event into an ActivityRecord and logs it.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	if event = activity.NormalizeEvent(event); !event.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	actor := parseUUID(event.ActorID)
	if actor == uuid.Nil {
		actor = h.Actor
	}
	data := make(map[string]any, len(event.Metadata)+1)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.ActorID != "" && parseUUID(event.ActorID) == uuid.Nil {
		data["actor"] = event.ActorID
	}
	if len(data) == 0 {
		data = nil
	}

	return h.Sink.Log(ctx, usertypes.ActivityRecord{
		ActorID:    actor,
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	})
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
