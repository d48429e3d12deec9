package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-locals/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards debugger events to a go-users ActivitySink so captures and
// watch evaluations appear in a user's activity feed.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if !normalized.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, Record(normalized))
}

// Record converts a normalized event into an ActivityRecord. Identifiers that
// are not UUIDs map to uuid.Nil.
func Record(event activity.Event) usertypes.ActivityRecord {
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       event.Metadata,
		OccurredAt: event.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	extra := map[string]any{}
	if event.DefinitionCode != "" {
		extra["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		extra["recipients"] = append([]string{}, event.Recipients...)
	}
	if len(extra) > 0 {
		data := make(map[string]any, len(record.Data)+len(extra))
		for key, value := range record.Data {
			data[key] = value
		}
		for key, value := range extra {
			data[key] = value
		}
		record.Data = data
	}
	return record
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
