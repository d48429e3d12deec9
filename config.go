package locals

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-driven inspector settings.
type Config struct {
	Placeholder     string `env:"LOCALS_PLACEHOLDER" envDefault:"<unrepresentable>"`
	Evaluator       string `env:"LOCALS_EVALUATOR" envDefault:"expr"`
	ActivityChannel string `env:"LOCALS_ACTIVITY_CHANNEL" envDefault:"debug"`
	StorePath       string `env:"LOCALS_STORE_PATH"`
	StandardModules bool   `env:"LOCALS_STANDARD_MODULES" envDefault:"true"`
}

// ConfigFromEnv parses LOCALS_* variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("locals: parse env: %w", err)
	}
	return cfg, nil
}

// Options translates the configuration into inspector options. It fails only
// when Evaluator names an engine that is not built in.
func (c Config) Options() ([]Option, error) {
	evaluator, err := NewEvaluator(c.Evaluator, nil, nil)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithPlaceholder(c.Placeholder),
		WithEvaluator(evaluator),
		WithActivityChannel(c.ActivityChannel),
	}
	if c.StandardModules {
		opts = append(opts, WithModules(StandardModules()))
	}
	return opts, nil
}
