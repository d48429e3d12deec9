package locals

import (
	"context"
	"time"

	"github.com/goliatone/go-locals/pkg/activity"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Capture is one timestamped view of a paused frame.
type Capture struct {
	ID         string    `json:"id"`
	Frame      string    `json:"frame,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
	Locals     string    `json:"locals"`
	Globals    string    `json:"globals"`
	// Names lists the retained local bindings, Dropped the import artifacts.
	Names    []string                `json:"names"`
	Dropped  []string                `json:"dropped,omitempty"`
	Trace    Trace                   `json:"trace"`
	Failures []*UnrepresentableError `json:"-"`
}

// Capture snapshots both views of an unnamed frame.
func (i *Inspector) Capture(ctx context.Context, local, global Scope) (Capture, error) {
	return i.CaptureFrame(ctx, "", local, global)
}

// CaptureFrame snapshots the locals and unshadowed globals of frame, logs the
// outcome and notifies activity hooks. The returned capture is valid even when
// a hook fails; hook errors are returned joined.
func (i *Inspector) CaptureFrame(ctx context.Context, frame string, local, global Scope) (Capture, error) {
	ctx, span := i.startSpan(ctx, "locals.capture",
		attribute.String("locals.frame", frame),
		attribute.Int("locals.bindings", len(local)),
	)
	start := time.Now()
	var failures []*UnrepresentableError
	encoder := i.newEncoder(&failures)

	filtered, trace := i.FilterWithTrace(local, global)
	capture := Capture{
		ID:         uuid.NewString(),
		Frame:      frame,
		CapturedAt: i.timestamp(),
		Locals:     snapshot(encoder, filtered),
		Globals:    snapshot(encoder, i.FilterScope(Difference(global, local), global)),
		Names:      trace.Kept(),
		Dropped:    trace.Dropped(),
		Trace:      trace,
	}
	capture.Failures = failures

	i.snapshotLogger().LogSnapshot(SnapshotLogEvent{
		CaptureID: capture.ID,
		Frame:     frame,
		Bindings:  len(local),
		Kept:      capture.Names,
		Dropped:   capture.Dropped,
		Failures:  failures,
		Duration:  time.Since(start),
	})

	err := i.emitter().Emit(ctx, activity.BuildSnapshotCapturedEvent(activity.SnapshotEventInput{
		CaptureID:  capture.ID,
		Frame:      activity.FrameContext{Name: frame, Level: "local"},
		Names:      capture.Names,
		Dropped:    capture.Dropped,
		OccurredAt: capture.CapturedAt,
	}))
	span.SetAttributes(
		attribute.String("locals.capture_id", capture.ID),
		attribute.Int("locals.dropped", len(capture.Dropped)),
		attribute.Int("locals.failures", len(failures)),
	)
	endSpan(span, err)
	return capture, err
}
