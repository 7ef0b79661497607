package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check their own invariants
// after parsing.
type Validator interface {
	Validate() error
}

type options struct {
	dotenv      []string
	prefix      string
	environment map[string]string
}

// Option configures Load.
type Option func(*options)

// WithDotenv loads the given files into the process environment before
// parsing. Missing files are skipped; variables already set win.
func WithDotenv(paths ...string) Option {
	return func(o *options) { o.dotenv = append(o.dotenv, paths...) }
}

// WithPrefix requires every variable name to carry prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environment = vars }
}

// Load parses environment variables into a new T using its env struct tags,
// then runs T's Validate method if it has one.
//
//	type Config struct {
//		Addr          string        `env:"HTTP_ADDR" envDefault:":8080"`
//		BillingCycle  time.Duration `env:"BILLING_CYCLE" envDefault:"720h"`
//	}
//
//	cfg, err := config.Load[Config](config.WithDotenv(".env"))
func Load[T any](opts ...Option) (T, error) {
	var (
		cfg T
		o   options
	)
	for _, opt := range opts {
		opt(&o)
	}

	for _, path := range o.dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Join(ErrDotenv, fmt.Errorf("%s: %w", path, err))
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return cfg, errors.Join(ErrInvalidConfig, err)
		}
	}
	return cfg, nil
}

// MustLoad is Load that panics on error. Use it only in main.
func MustLoad[T any](opts ...Option) T {
	cfg, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
