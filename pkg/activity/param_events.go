package activity

import (
	"strings"
	"time"
)

// Parameter lifecycle verbs.
const (
	VerbDefaulted       = "params.defaulted"
	VerbTypeMismatch    = "params.type_mismatch"
	VerbClamped         = "params.clamped"
	VerbRuleFailed      = "params.rule_failed"
	VerbOverrideIgnored = "params.override_ignored"
	VerbResolved        = "params.resolved"
	VerbPublished       = "params.published"
	VerbSnapshotApplied = "params.snapshot.applied"
)

// ObjectParameter is the object type of param events; snapshot events use
// ObjectSnapshot.
const (
	ObjectParameter = "parameter"
	ObjectSnapshot  = "snapshot"
)

// ParamEventInput carries the fields of one parameter event.
type ParamEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Name       string
	Key        string
	OldValue   any
	NewValue   any
	Reason     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildParamEvent builds an event for verb. The object ID is the parameter
// name, or the object type when no name is given.
func BuildParamEvent(verb string, input ParamEventInput) Event {
	objectType := ObjectParameter
	if verb == VerbSnapshotApplied {
		objectType = ObjectSnapshot
	}

	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Key != "" {
		set("key", input.Key)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if input.Reason != "" {
		set("reason", input.Reason)
	}

	objectID := strings.TrimSpace(input.Name)
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
