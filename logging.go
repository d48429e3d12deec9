package locals

import "time"

// EvaluatorLogEvent describes a watch evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Frame    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the Inspector.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *inspectorConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}

// SnapshotLogEvent describes one capture for logging.
type SnapshotLogEvent struct {
	CaptureID string
	Frame     string
	Bindings  int
	Kept      []string
	Dropped   []string
	Failures  []*UnrepresentableError
	Duration  time.Duration
}

// SnapshotLogger records capture events.
type SnapshotLogger interface {
	LogSnapshot(SnapshotLogEvent)
}

// SnapshotLoggerFunc adapts a function to SnapshotLogger.
type SnapshotLoggerFunc func(SnapshotLogEvent)

// LogSnapshot implements SnapshotLogger.
func (f SnapshotLoggerFunc) LogSnapshot(event SnapshotLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopSnapshotLogger struct{}

func (noopSnapshotLogger) LogSnapshot(SnapshotLogEvent) {}

// WithSnapshotLogger attaches a capture logger to the Inspector.
func WithSnapshotLogger(logger SnapshotLogger) Option {
	return func(cfg *inspectorConfig) {
		if logger == nil {
			cfg.snapshotLogger = noopSnapshotLogger{}
			return
		}
		cfg.snapshotLogger = logger
	}
}
