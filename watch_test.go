package locals

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-locals/pkg/activity"
)

var evaluatorFactories = []struct {
	name     string
	uncached bool
	new      func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry))
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry))
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		},
	},
	{
		name:     "lua",
		uncached: true,
		new: func(_ ProgramCache, registry *FunctionRegistry) Evaluator {
			return NewLuaEvaluator(LuaWithFunctionRegistry(registry))
		},
	},
}

func TestWatchAcrossEngines(t *testing.T) {
	cases := []struct {
		name   string
		local  Scope
		global Scope
		expr   string
		expect string
	}{
		{name: "local only", local: Scope{"x": 3}, expr: "x + 1", expect: "4"},
		{name: "global visible", local: Scope{"x": 3}, global: Scope{"y": 10}, expr: "x + y", expect: "13"},
		{name: "local shadows global", local: Scope{"x": 3}, global: Scope{"x": 100}, expr: "x * 2", expect: "6"},
		{name: "comparison", local: Scope{"n": 5}, expr: "n > 4", expect: "true"},
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not built", factory.name)
			}
			inspector := New(WithEvaluator(evaluator))
			for _, tc := range cases {
				tc := tc
				t.Run(tc.name, func(t *testing.T) {
					result, err := inspector.Watch(tc.local, tc.global, tc.expr)
					if err != nil {
						t.Fatalf("watch: %v", err)
					}
					if got := fmt.Sprint(result.Value); got != tc.expect {
						t.Fatalf("expected %s, got %s (%T)", tc.expect, got, result.Value)
					}
					if !result.Present {
						t.Fatalf("expected present representation")
					}
					if result.Engine != factory.name {
						t.Fatalf("expected engine %s, got %s", factory.name, result.Engine)
					}
				})
			}
		})
	}
}

func TestWatchDefaultsToExpr(t *testing.T) {
	inspector := New(WithBuiltins(Scope{"limit": 10}))
	result, err := inspector.Watch(Scope{"x": 3}, Scope{"y": 4}, "x + y + limit")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if result.Engine != "expr" {
		t.Fatalf("expected expr engine, got %s", result.Engine)
	}
	if result.Repr != "int(17)" {
		t.Fatalf("unexpected repr %q", result.Repr)
	}
}

func TestWatchSuppressedResult(t *testing.T) {
	inspector := New()
	result, err := inspector.Watch(Scope{"f": func() {}}, nil, "f")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if result.Present || result.Repr != "" {
		t.Fatalf("expected absent representation, got %+v", result)
	}
}

func TestWatchDoesNotMutateInspectedState(t *testing.T) {
	mutator := &mutatingEvaluator{}
	inspector := New(WithEvaluator(mutator))
	items := []int{1, 2}
	local := Scope{"items": items}

	if _, err := inspector.Watch(local, nil, "items"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if !mutator.called {
		t.Fatalf("expected evaluator to run")
	}
	if items[0] != 1 {
		t.Fatalf("evaluator mutated inspected slice: %v", items)
	}
}

func TestWatchEmptyExpression(t *testing.T) {
	if _, err := New().Watch(Scope{}, nil, "  "); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}
}

func TestWatchEvaluationErrorAndLogging(t *testing.T) {
	var events []EvaluatorLogEvent
	logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})
	inspector := New(WithEvaluatorLogger(logger))

	_, err := inspector.Watch(Scope{"x": 1}, nil, `x / "a"`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T %v", err, err)
	}
	if evalErr.Engine != "expr" || evalErr.Frame != "unknown" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if len(events) != 1 || events[0].Err == nil || events[0].Engine != "expr" {
		t.Fatalf("expected one failed log event, got %+v", events)
	}

	if _, err := inspector.Watch(Scope{"x": 1}, nil, "x"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(events) != 2 || events[1].Err != nil {
		t.Fatalf("expected successful log event, got %+v", events)
	}
}

func TestWatchWithFrameAndMetadata(t *testing.T) {
	capture := &capturingEvaluator{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inspector := New(WithEvaluator(capture), WithClock(func() time.Time { return now }))

	_, err := inspector.WatchWith(RuleContext{
		Bindings: map[string]any{"x": 1},
		Frame:    "main.loop",
		Args:     map[string]any{"limit": 3},
	}, "x")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(capture.contexts) != 1 {
		t.Fatalf("expected one context, got %d", len(capture.contexts))
	}
	ctx := capture.contexts[0]
	if ctx.Frame != "main.loop" || ctx.Args["limit"] != 3 || ctx.Metadata == nil {
		t.Fatalf("unexpected context %+v", ctx)
	}
	if ctx.Now == nil || !ctx.Now.Equal(now) {
		t.Fatalf("expected injected clock, got %v", ctx.Now)
	}
}

func TestWatchEmitsActivity(t *testing.T) {
	capture := &activity.CaptureHook{}
	inspector := New(WithActivityHooks(activity.Hooks{capture}), WithActivityChannel("ide"))

	if _, err := inspector.WatchContext(context.Background(), Scope{"x": 2}, nil, "x * 2"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(capture.Events))
	}
	event := capture.Events[0]
	if event.Verb != "watch.evaluated" || event.Channel != "ide" {
		t.Fatalf("unexpected event %+v", event)
	}
	if event.Metadata["result"] != "int(4)" {
		t.Fatalf("expected result metadata, got %+v", event.Metadata)
	}
}

func TestWatchCustomFunction(t *testing.T) {
	inspector := New(WithCustomFunction("double", func(args ...any) (any, error) {
		n, ok := args[0].(int)
		if !ok {
			return nil, fmt.Errorf("double expects int, got %T", args[0])
		}
		return n * 2, nil
	}))
	result, err := inspector.Watch(Scope{"x": 21}, nil, "double(x)")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if result.Value != 42 {
		t.Fatalf("expected 42, got %v", result.Value)
	}
}

func TestEvaluatorProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			evaluator := factory.new(cache, nil)
			if evaluator == nil {
				t.Skipf("%s evaluator not built", factory.name)
			}
			if factory.uncached {
				t.Skipf("%s evaluator does not cache programs", factory.name)
			}
			inspector := New(WithEvaluator(evaluator))
			for i := 0; i < 3; i++ {
				if _, err := inspector.Watch(Scope{"x": i}, nil, "x + 1"); err != nil {
					t.Fatalf("iteration %d: %v", i, err)
				}
			}
			if cache.misses != 1 || cache.hits != 2 {
				t.Fatalf("expected 1 miss and 2 hits, got misses=%d hits=%d", cache.misses, cache.hits)
			}
		})
	}
}

func TestNewEvaluator(t *testing.T) {
	for _, engine := range []string{"", "expr", "CEL", "lua"} {
		if _, err := NewEvaluator(engine, nil, nil); err != nil {
			t.Fatalf("%q: %v", engine, err)
		}
	}
	if _, err := NewEvaluator("cobol", nil, nil); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator for unknown engine, got %v", err)
	}
	_, err := NewEvaluator("js", nil, nil)
	if jsEvaluatorAvailable() != (err == nil) {
		t.Fatalf("js availability mismatch: available=%v err=%v", jsEvaluatorAvailable(), err)
	}
}

func TestEvaluatorEngineName(t *testing.T) {
	if got := evaluatorEngineName(NewExprEvaluator()); got != "expr" {
		t.Fatalf("expected expr, got %s", got)
	}
	if got := evaluatorEngineName(NewCELEvaluator()); got != "cel" {
		t.Fatalf("expected cel, got %s", got)
	}
	if got := evaluatorEngineName(NewLuaEvaluator()); got != "lua" {
		t.Fatalf("expected lua, got %s", got)
	}
	if got := evaluatorEngineName(&capturingEvaluator{}); got != "custom" {
		t.Fatalf("expected custom, got %s", got)
	}
}

type fakeProgramCache struct {
	store  map[string]any
	hits   int
	misses int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	value, ok := c.store[key]
	if ok {
		c.hits++
		return value, true
	}
	c.misses++
	return nil, false
}

func (c *fakeProgramCache) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

type capturingEvaluator struct {
	contexts []RuleContext
}

func (c *capturingEvaluator) Evaluate(ctx RuleContext, _ string) (any, error) {
	c.contexts = append(c.contexts, ctx)
	return true, nil
}

func (c *capturingEvaluator) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, fmt.Errorf("capturing evaluator does not support compile")
}

type mutatingEvaluator struct {
	called bool
}

func (m *mutatingEvaluator) Evaluate(ctx RuleContext, _ string) (any, error) {
	m.called = true
	if items, ok := ctx.Bindings["items"].([]int); ok && len(items) > 0 {
		items[0] = 99
	}
	return nil, nil
}

func (m *mutatingEvaluator) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, fmt.Errorf("mutating evaluator does not support compile")
}

func TestWatchJoinsHookErrorWithEvaluationError(t *testing.T) {
	offline := errors.New("sink offline")
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return offline
	})
	inspector := New(WithActivityHooks(activity.Hooks{failing}))

	_, err := inspector.Watch(Scope{"x": 1}, nil, `x / "a"`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if !errors.Is(err, offline) {
		t.Fatalf("expected hook error to be kept, got %v", err)
	}

	result, err := inspector.Watch(Scope{"x": 1}, nil, "x")
	if !errors.Is(err, offline) || result.Repr != "int(1)" {
		t.Fatalf("expected result with hook error, got %+v (%v)", result, err)
	}
}
