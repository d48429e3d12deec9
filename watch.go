package locals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-locals/layering"
	"github.com/goliatone/go-locals/pkg/activity"
	"go.opentelemetry.io/otel/attribute"
)

// WatchResult is the outcome of a watch expression.
type WatchResult struct {
	Expression string
	Engine     string
	Value      any
	// Repr is the canonical representation of Value. Present is false when
	// the value is suppressed (a function, type or module).
	Repr    string
	Present bool
}

// Watch evaluates expr against the bindings visible from a paused frame:
// locals shadow globals, which shadow the configured builtins.
func (i *Inspector) Watch(local, global Scope, expr string) (WatchResult, error) {
	return i.WatchContext(context.Background(), local, global, expr)
}

// WatchContext is Watch with a context for activity hooks.
func (i *Inspector) WatchContext(ctx context.Context, local, global Scope, expr string) (WatchResult, error) {
	return i.watch(ctx, RuleContext{Bindings: i.visible(local, global)}, expr)
}

// WatchWith evaluates expr with caller supplied bindings and metadata.
// ctx.Bindings is cloned before evaluation.
func (i *Inspector) WatchWith(ctx RuleContext, expr string) (WatchResult, error) {
	ctx.Bindings = layering.Clone(ctx.Bindings)
	return i.watch(context.Background(), ctx, expr)
}

func (i *Inspector) visible(local, global Scope) map[string]any {
	chain := layering.NewScopeChain(
		layering.Layer{Level: layering.ScopeLevelLocal, Bindings: local},
		layering.Layer{Level: layering.ScopeLevelGlobal, Bindings: global},
		layering.Layer{Level: layering.ScopeLevelBuiltin, Bindings: i.cfg.builtins},
	)
	return layering.Clone(chain.Visible())
}

func (i *Inspector) watch(ctx context.Context, rctx RuleContext, expr string) (result WatchResult, err error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return WatchResult{}, ErrEmptyExpression
	}
	ctx, span := i.startSpan(ctx, "locals.watch",
		attribute.String("locals.expression", expr),
		attribute.String("locals.frame", rctx.frameLabel()),
	)
	defer func() { endSpan(span, err) }()

	evaluator, err := i.resolveEvaluator()
	if err != nil {
		return WatchResult{}, err
	}
	if rctx.Now == nil {
		now := i.timestamp()
		rctx.Now = &now
	}
	rctx = rctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	span.SetAttributes(attribute.String("locals.engine", engine))
	start := time.Now()
	value, evalErr := evaluator.Evaluate(rctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, rctx.frameLabel(), evalErr)
	i.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Frame:    rctx.frameLabel(),
		Duration: duration,
		Err:      evalErr,
	})

	result = WatchResult{Expression: expr, Engine: engine}
	if evalErr == nil {
		result.Value = value
		result.Repr, result.Present = i.Serialize(value)
	}

	emitErr := i.emitter().Emit(ctx, activity.BuildWatchEvaluatedEvent(activity.SnapshotEventInput{
		Frame:      activity.FrameContext{Name: rctx.Frame},
		Expression: expr,
		Result:     result.Repr,
		Err:        evalErr,
		OccurredAt: *rctx.Now,
	}))
	if evalErr != nil {
		return WatchResult{}, errors.Join(evalErr, emitErr)
	}
	return result, emitErr
}

func (i *Inspector) resolveEvaluator() (Evaluator, error) {
	if evaluator := i.evaluator(); evaluator != nil {
		return evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := i.programCache(); cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := i.functionRegistry(); registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

// NewEvaluator returns the built-in evaluator registered under engine
// ("expr", "cel" or "js"), wired with the given cache and functions.
func NewEvaluator(engine string, cache ProgramCache, functions *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", "expr":
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions)), nil
	case "cel":
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions)), nil
	case "js":
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("locals: js evaluator requires the js_eval build tag: %w", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions)), nil
	case "lua":
		return NewLuaEvaluator(LuaWithFunctionRegistry(functions)), nil
	default:
		return nil, fmt.Errorf("locals: unknown evaluator %q: %w", engine, ErrNoEvaluator)
	}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*locals.exprEvaluator":
		return "expr"
	case "*locals.celEvaluator":
		return "cel"
	case "*locals.jsEvaluator":
		return "js"
	case "*locals.luaEvaluator":
		return "lua"
	default:
		return "custom"
	}
}
