package activity

import (
	"strings"
	"time"
)

// FrameContext identifies the paused frame an event was produced from.
type FrameContext struct {
	Session string
	Name    string
	Level   string
}

// SnapshotEventInput describes the common fields for debugger events.
type SnapshotEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Frame          FrameContext
	CaptureID      string
	Names          []string
	Dropped        []string
	Added          []string
	Removed        []string
	Expression     string
	Result         string
	Err            error
	OccurredAt     time.Time
}

// BuildSnapshotCapturedEvent constructs the event emitted after a frame's
// variables were captured.
func BuildSnapshotCapturedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent("snapshot.captured", "snapshot", input)
}

// BuildBindingsChangedEvent constructs the event emitted when a recorded frame
// gained or lost bindings since its previous capture.
func BuildBindingsChangedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent("bindings.changed", "bindings", input)
}

// BuildWatchEvaluatedEvent constructs the event emitted after a watch
// expression ran.
func BuildWatchEvaluatedEvent(input SnapshotEventInput) Event {
	return buildSnapshotEvent("watch.evaluated", "watch", input)
}

func buildSnapshotEvent(verb, objectType string, input SnapshotEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}

	if input.Frame.Session != "" {
		set("session", input.Frame.Session)
	}
	if input.Frame.Name != "" {
		set("frame", input.Frame.Name)
	}
	if input.Frame.Level != "" {
		set("level", input.Frame.Level)
	}
	if input.CaptureID != "" {
		set("capture_id", input.CaptureID)
	}
	for key, names := range map[string][]string{
		"names":   input.Names,
		"dropped": input.Dropped,
		"added":   input.Added,
		"removed": input.Removed,
	} {
		if len(names) > 0 {
			set(key, append([]string{}, names...))
		}
	}
	if input.Expression != "" {
		set("expression", input.Expression)
		set("result", input.Result)
	}
	if input.Err != nil {
		set("error", input.Err.Error())
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     objectType,
		ObjectID:       objectID(objectType, input),
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

// objectID picks the most specific identifier available.
func objectID(objectType string, input SnapshotEventInput) string {
	for _, candidate := range []string{
		input.ObjectID,
		input.CaptureID,
		input.Expression,
		input.Frame.Name,
		input.Frame.Session,
	} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return objectType
}
