package locals

// ProgramCache stores compiled watch programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *inspectorConfig) {
		cfg.programCache = cache
	}
}
