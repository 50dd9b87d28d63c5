// Package regexdev evaluates regular expressions for interactive tools.
//
// An evaluation compiles a pattern with a set of flags, applies it to a subject in one of two modes,
// and projects the outcome into display artifacts: highlight spans over the subject,
// a listing of the capture groups, and an error marker for malformed patterns.
// All offsets are character (rune) offsets.
package regexdev

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/magnetde/regexdev/regex"
)

// ErrUnknownMode is returned by Run for a match mode outside of the defined modes.
var ErrUnknownMode = errors.New("unknown match mode")

// Compile compiles a pattern.
// An empty pattern is not compiled; in this case, both return values are nil.
// If the pattern is malformed, the returned error describes the position one character
// before the position reported by the engine, clamped into the pattern.
func Compile(pattern string, flags regex.FlagSet, opts regex.Options) (*regex.Pattern, *PatternError) {
	if pattern == "" {
		return nil, nil
	}

	p, err := regex.Compile(pattern, flags, opts)
	if err != nil {
		return nil, newPatternError(pattern, err)
	}

	return p, nil
}

func newPatternError(pattern string, err error) *PatternError {
	pe := &PatternError{
		Pattern: pattern,
		Offset:  -1,
		Message: err.Error(),
	}

	var se *regex.SyntaxError
	if errors.As(err, &se) && se.Index >= 0 {
		n := utf8.RuneCountInString(pattern)
		pe.Offset = min(max(se.Index-1, 0), max(n-1, 0))
	}

	return pe
}

// Run applies a compiled pattern to the subject.
// A nil pattern or an empty subject produce no results without invoking the engine.
// In Search mode, all non-overlapping matches are returned with ordinals 0, 1, 2, ...;
// after an empty match, the search continues one character further.
// In FullMatch mode, at most one result with ordinal FullMatchOrdinal is returned.
// Run checks ctx between two matches.
func Run(ctx context.Context, p *regex.Pattern, subject string, mode MatchMode) ([]MatchResult, error) {
	if mode != Search && mode != FullMatch {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}

	if p == nil || subject == "" {
		return nil, nil
	}

	in := p.NewInput(subject)
	numbers := p.GroupNumbers()
	chars := []rune(subject)

	if mode == FullMatch {
		a, err := in.FindFull()
		if err != nil || a == nil {
			return nil, err
		}

		return []MatchResult{newResult(FullMatchOrdinal, a, chars, numbers)}, nil
	}

	var results []MatchResult

	for pos := 0; pos <= in.Len(); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a, err := in.Find(pos)
		if err != nil {
			return nil, err
		}
		if a == nil {
			break
		}

		results = append(results, newResult(len(results), a, chars, numbers))

		// Advance past this match; always advance at least one character.
		if a[1] > a[0] {
			pos = a[1]
		} else {
			pos = a[1] + 1
		}
	}

	return results, nil
}

// newResult creates a match result from start/end pairs, as returned by `regex.Input`.
func newResult(ordinal int, a []int, chars []rune, numbers []int) MatchResult {
	r := MatchResult{
		Ordinal: ordinal,
		Span:    Span{Start: a[0], End: a[1]},
	}

	if len(numbers) > 0 {
		r.Groups = make([]CaptureGroup, len(numbers))
	}

	for k, n := range numbers {
		g := CaptureGroup{Index: n}

		s, e := a[2*(k+1)], a[2*(k+1)+1]
		if s >= 0 && e >= 0 {
			g.Matched = true
			g.Value = string(chars[s:e])
			g.Span = Span{Start: s, End: e}
		}

		r.Groups[k] = g
	}

	return r
}

// Request contains the inputs of a single evaluation.
type Request struct {
	Pattern string
	Flags   regex.FlagSet
	Mode    MatchMode
	Subject string
}

// Config configures an Evaluator.
type Config struct {
	Options regex.Options

	// CacheSize is the number of compiled patterns kept; zero disables the cache.
	CacheSize int

	// AbsentText is rendered in the group listing for groups, that did not participate in a match.
	// If empty, "null" is used.
	AbsentText string

	Logger *slog.Logger
}

// Evaluator evaluates requests. It is safe for concurrent use.
type Evaluator struct {
	opts      regex.Options
	cache     *Cache
	projector Projector
	logger    *slog.Logger
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(cfg Config) *Evaluator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	projector := DefaultProjector
	if cfg.AbsentText != "" {
		projector.AbsentText = cfg.AbsentText
	}

	e := &Evaluator{
		opts:      cfg.Options,
		projector: projector,
		logger:    logger,
	}

	if cfg.CacheSize > 0 {
		e.cache = NewCache(cfg.CacheSize)
	}

	return e
}

// Options returns the compile options of the evaluator.
func (e *Evaluator) Options() regex.Options {
	return e.opts
}

// Projector returns the projector used by `Evaluate`.
func (e *Evaluator) Projector() Projector {
	return e.projector
}

// Purge clears the cache of compiled patterns.
func (e *Evaluator) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Compile compiles the pattern through the cache of the evaluator.
func (e *Evaluator) Compile(pattern string, flags regex.FlagSet) (*regex.Pattern, *PatternError) {
	if e.cache == nil {
		return Compile(pattern, flags, e.opts)
	}

	return e.cache.Compile(pattern, flags, e.opts)
}

// Outcome compiles the pattern and applies it to the subject.
// It never fails: malformed patterns and aborted evaluations are reported as PatternError.
func (e *Evaluator) Outcome(ctx context.Context, req Request) Outcome {
	if req.Mode != Search && req.Mode != FullMatch {
		e.logger.Error("unhandled match mode", "mode", req.Mode.String())
		return Outcome{Idle: true}
	}

	if req.Pattern == "" || req.Subject == "" {
		return Outcome{Idle: true}
	}

	p, perr := e.Compile(req.Pattern, req.Flags)
	if perr != nil {
		e.logger.Debug("pattern does not compile",
			"pattern", req.Pattern,
			"flags", req.Flags.String(),
			"offset", perr.Offset,
			"error", perr.Message,
		)

		return Outcome{Err: perr}
	}

	results, err := Run(ctx, p, req.Subject, req.Mode)
	if err != nil {
		e.logger.Debug("evaluation aborted", "pattern", req.Pattern, "error", err)

		return Outcome{Err: &PatternError{
			Pattern: req.Pattern,
			Offset:  -1,
			Message: err.Error(),
		}}
	}

	return Outcome{Results: results}
}

// Evaluate evaluates the request and projects the outcome into display artifacts.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Outcome, DisplayArtifacts) {
	o := e.Outcome(ctx, req)
	return o, e.projector.Project(o)
}

var defaultEvaluator = NewEvaluator(Config{CacheSize: DefaultCacheSize})

// Evaluate compiles the pattern with the flags, applies it to the subject and
// returns the display artifacts. Compiled patterns are cached.
func Evaluate(pattern string, flags regex.FlagSet, mode MatchMode, subject string) DisplayArtifacts {
	_, a := defaultEvaluator.Evaluate(context.Background(), Request{
		Pattern: pattern,
		Flags:   flags,
		Mode:    mode,
		Subject: subject,
	})

	return a
}
