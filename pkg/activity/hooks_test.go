package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	recipients := []string{" a ", "b "}
	evt := Event{
		Verb:           " snapshot.captured ",
		ActorID:        " actor ",
		UserID:         " user ",
		TenantID:       " tenant ",
		ObjectType:     " snapshot ",
		ObjectID:       " 42 ",
		Channel:        " debug ",
		DefinitionCode: " def ",
		Recipients:     recipients,
		Metadata:       meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != "snapshot.captured" || got.ObjectType != "snapshot" || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "debug" || got.DefinitionCode != "def" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	if got.Metadata["k"] != "v" {
		t.Fatalf("expected metadata value preserved: %+v", got.Metadata)
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
	got.Recipients[0] = "changed"
	if recipients[0] != " a " {
		t.Fatalf("expected original recipients untouched: %+v", recipients)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	hooks := Hooks{&CaptureHook{}}
	err := hooks.Notify(context.Background(), Event{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	capture := hooks[0].(*CaptureHook)
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom1") }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errors.New("boom2") }),
	}

	err := hooks.Notify(nil, Event{Verb: "snapshot.captured", ObjectType: "snapshot", ObjectID: "1"})
	if err == nil || !errors.Is(err, errors.New("boom1")) || !errors.Is(err, errors.New("boom2")) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Verb: "watch.evaluated", ObjectType: "snapshot", ObjectID: "1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: ""})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), Event{Verb: "watch.evaluated", ObjectType: "snapshot", ObjectID: "1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})

	err := emitter.Emit(context.Background(), Event{
		Verb:       "watch.evaluated",
		ObjectType: "snapshot",
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].OccurredAt != (time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestEventRoutable(t *testing.T) {
	if (Event{Verb: "v", ObjectType: "t"}).Routable() {
		t.Fatalf("event without object id should not be routable")
	}
	if !(Event{Verb: "v", ObjectType: "t", ObjectID: "1"}).Routable() {
		t.Fatalf("complete event should be routable")
	}
}

func TestEmitterChannelDefaults(t *testing.T) {
	var nilEmitter *Emitter
	if nilEmitter.Channel() != DefaultChannel || nilEmitter.Enabled() {
		t.Fatalf("nil emitter should be disabled with default channel")
	}
	emitter := NewEmitter(Hooks{nil}, Config{Enabled: true, Channel: " ide "})
	if emitter.Enabled() {
		t.Fatalf("emitter without usable hooks should be disabled")
	}
	if emitter.Channel() != "ide" {
		t.Fatalf("expected trimmed channel, got %q", emitter.Channel())
	}
}

func TestEmitterStampsTraceContext(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	meta := map[string]any{"frame": "main"}

	if err := emitter.Emit(ctx, Event{Verb: "snapshot.captured", ObjectType: "snapshot", ObjectID: "1", Metadata: meta}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := capture.Events[0].Metadata
	if got["trace_id"] != sc.TraceID().String() || got["span_id"] != sc.SpanID().String() || got["frame"] != "main" {
		t.Fatalf("unexpected metadata %+v", got)
	}
	if _, ok := meta["trace_id"]; ok {
		t.Fatalf("caller metadata must not be modified")
	}

	if err := emitter.Emit(context.Background(), Event{Verb: "snapshot.captured", ObjectType: "snapshot", ObjectID: "2"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if _, ok := capture.Events[1].Metadata["trace_id"]; ok {
		t.Fatalf("expected no trace metadata without a span")
	}
}
