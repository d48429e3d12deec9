package locals

import (
	"time"

	"github.com/goliatone/go-locals/pkg/activity"
	"go.opentelemetry.io/otel/trace"
)

// Scope maps binding names to their current values, captured at one instant.
type Scope map[string]any

// Inspector filters and serializes scope snapshots. It is immutable after
// construction and safe for concurrent use.
type Inspector struct {
	cfg inspectorConfig
}

// New constructs an Inspector. Without WithModules the inspector knows no
// modules, so no binding is ever classified as an import artifact.
func New(opts ...Option) *Inspector {
	return &Inspector{cfg: applyOptions(opts)}
}

// Option configures an Inspector.
type Option func(*inspectorConfig)

type inspectorConfig struct {
	modules         *Registry
	placeholder     string
	builtins        Scope
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	snapshotLogger  SnapshotLogger
	activityHooks   activity.Hooks
	activityChannel string
	tracer          trace.Tracer
	now             func() time.Time
}

func applyOptions(opts []Option) inspectorConfig {
	cfg := inspectorConfig{placeholder: DefaultPlaceholder}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.modules == nil {
		cfg.modules = NewRegistry()
	}
	return cfg
}

// WithModules sets the snapshot of loaded modules used to detect import
// artifacts.
func WithModules(registry *Registry) Option {
	return func(cfg *inspectorConfig) {
		cfg.modules = registry
	}
}

// WithPlaceholder replaces the token emitted for unrepresentable values.
func WithPlaceholder(placeholder string) Option {
	return func(cfg *inspectorConfig) {
		if placeholder != "" {
			cfg.placeholder = placeholder
		}
	}
}

// WithBuiltins sets bindings visible to watch expressions below the global
// scope.
func WithBuiltins(builtins Scope) Option {
	return func(cfg *inspectorConfig) {
		cfg.builtins = builtins
	}
}

// WithEvaluator configures the watch expression evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *inspectorConfig) {
		cfg.evaluator = e
	}
}

// WithClock overrides the time source used for capture timestamps and
// evaluation contexts.
func WithClock(now func() time.Time) Option {
	return func(cfg *inspectorConfig) {
		cfg.now = now
	}
}

// Modules returns the registry the inspector filters against.
func (i *Inspector) Modules() *Registry {
	return i.cfg.modules
}

func (i *Inspector) timestamp() time.Time {
	if i.cfg.now != nil {
		return i.cfg.now()
	}
	return time.Now()
}

func (i *Inspector) evaluator() Evaluator {
	return i.cfg.evaluator
}

func (i *Inspector) programCache() ProgramCache {
	return i.cfg.programCache
}

func (i *Inspector) functionRegistry() *FunctionRegistry {
	return i.cfg.functions
}

func (i *Inspector) evaluatorLogger() EvaluatorLogger {
	if i.cfg.evaluatorLogger != nil {
		return i.cfg.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}

func (i *Inspector) snapshotLogger() SnapshotLogger {
	if i.cfg.snapshotLogger != nil {
		return i.cfg.snapshotLogger
	}
	return noopSnapshotLogger{}
}

// newEncoder returns an encoder honouring the configured placeholder. When
// failures is non-nil every substituted value is appended to it.
func (i *Inspector) newEncoder(failures *[]*UnrepresentableError) *Encoder {
	opts := []EncoderOption{WithEncoderPlaceholder(i.cfg.placeholder)}
	if failures != nil {
		opts = append(opts, WithFailureHandler(func(err *UnrepresentableError) {
			*failures = append(*failures, err)
		}))
	}
	return NewEncoder(opts...)
}

// RuleContext carries inputs needed when evaluating a watch expression.
type RuleContext struct {
	Bindings map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Frame    string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Bindings == nil {
		ctx.Bindings = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) frameLabel() string {
	if ctx.Frame != "" {
		return ctx.Frame
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}
