// Package config defines the runtime configuration of the regexdev tools.
//
// Every setting is a command line flag. A flag, that is not given on the command line,
// is read from the environment variable with the prefix REGEXDEV_, e.g. REGEXDEV_TIMEOUT for -timeout:
//   - -backend: regex engine, "backtrack", "re2" or "auto" (default "backtrack").
//   - -timeout: match timeout of the backtracking engine (default "2s", "0" disables the timeout).
//   - -cache-size: number of cached compiled patterns (default 32, 0 disables the cache).
//   - -absent-text: text shown for groups, that did not participate in a match (default "null").
//   - -log-level: "debug", "info", "warn" or "error" (default "info").
package config

import (
	"errors"
	"flag"
	"time"

	"github.com/peterbourgon/ff/v3"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/regex"
)

// EnvVarPrefix is the prefix of all environment variables.
const EnvVarPrefix = "REGEXDEV"

const (
	defaultTimeout    = 2 * time.Second
	defaultAbsentText = "null"
	defaultLogLevel   = "info"
)

// Config holds the runtime configuration of the regexdev tools.
type Config struct {
	Backend    regex.Backend
	Timeout    time.Duration
	CacheSize  int
	AbsentText string
	LogLevel   string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:    regex.BackendBacktrack,
		Timeout:    defaultTimeout,
		CacheSize:  regexdev.DefaultCacheSize,
		AbsentText: defaultAbsentText,
		LogLevel:   defaultLogLevel,
	}
}

// RegisterFlags defines a flag for each setting. The current values are the defaults of the flags.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&c.Backend, "backend", `regex engine, "backtrack", "re2" or "auto"`)
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "match timeout of the backtracking engine, 0 disables the timeout")
	fs.IntVar(&c.CacheSize, "cache-size", c.CacheSize, "number of cached compiled patterns, 0 disables the cache")
	fs.StringVar(&c.AbsentText, "absent-text", c.AbsentText, "text shown for groups, that did not participate in a match")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, `log level, "debug", "info", "warn" or "error"`)
}

// Parse parses the command line into the flag set. Flags missing on the command line are read from the environment.
func Parse(fs *flag.FlagSet, args []string) error {
	return ff.Parse(fs, args, ff.WithEnvVarPrefix(EnvVarPrefix))
}

// Validate reports values, that cannot be used.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.CacheSize < 0 {
		return errors.New("cache size must not be negative")
	}

	return nil
}

// Evaluator returns the evaluator configuration.
func (c Config) Evaluator() regexdev.Config {
	return regexdev.Config{
		Options: regex.Options{
			Backend: c.Backend,
			Timeout: c.Timeout,
		},
		CacheSize:  c.CacheSize,
		AbsentText: c.AbsentText,
	}
}
