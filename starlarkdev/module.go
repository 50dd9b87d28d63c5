// Package starlarkdev exposes the regex evaluation engine as a Starlark module.
package starlarkdev

import (
	"context"
	"errors"
	"fmt"

	"go.starlark.net/starlark"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/regex"
)

// Module is the Starlark value of the regexdev module.
// A new type is implemented instead of using the `starlarkstruct.Module` type,
// since the builtins need access to the evaluator.
type Module struct {
	members starlark.StringDict
	ev      *regexdev.Evaluator
}

// NewModule creates a new regexdev module backed by the given evaluator.
func NewModule(ev *regexdev.Evaluator) *Module {
	members := starlark.StringDict{
		"SEARCH":    starlark.String(regexdev.Search.String()),
		"FULLMATCH": starlark.String(regexdev.FullMatch.String()),

		"evaluate": starlark.NewBuiltin("evaluate", modEvaluate),
		"compile":  starlark.NewBuiltin("compile", modCompile),
		"flags":    starlark.NewBuiltin("flags", modFlags),
		"purge":    starlark.NewBuiltin("purge", modPurge),
	}

	for _, f := range regex.AllFlags() {
		members[f.String()] = starlark.String(f.String())
	}

	return &Module{
		members: members,
		ev:      ev,
	}
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value    = (*Module)(nil)
	_ starlark.HasAttrs = (*Module)(nil)
)

func (m *Module) Freeze()               { m.members.Freeze() }
func (m *Module) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", m.Type()) }
func (m *Module) String() string        { return "<module regexdev>" }
func (m *Module) Truth() starlark.Bool  { return true }
func (m *Module) Type() string          { return "module" }

func (m *Module) Attr(name string) (starlark.Value, error) {
	if v, ok := m.members[name]; ok {
		if b, ok := v.(*starlark.Builtin); ok {
			return b.BindReceiver(m), nil
		}

		return v, nil
	}

	return nil, nil
}
func (m *Module) AttrNames() []string { return m.members.Keys() }

// flagsParam is the flags parameter: None, a string like "i,m" or a list of flag names.
type flagsParam struct {
	set regex.FlagSet
}

// modeParam is the mode parameter: "search" or "fullmatch".
type modeParam struct {
	mode regexdev.MatchMode
}

var (
	_ starlark.Unpacker = (*flagsParam)(nil)
	_ starlark.Unpacker = (*modeParam)(nil)
)

func (p *flagsParam) Unpack(v starlark.Value) error {
	switch t := v.(type) {
	case starlark.NoneType:
		p.set = regex.FlagSet{}
	case starlark.String:
		set, err := regex.ParseFlagSet(string(t))
		if err != nil {
			return err
		}
		p.set = set
	case starlark.Iterable:
		iter := t.Iterate()
		defer iter.Done()

		var set regex.FlagSet
		var x starlark.Value
		for iter.Next(&x) {
			s, ok := starlark.AsString(x)
			if !ok {
				return fmt.Errorf("got %s, want str", x.Type())
			}

			f, err := regex.ParseFlag(s)
			if err != nil {
				return err
			}
			set = set.Enable(f)
		}
		p.set = set
	default:
		return fmt.Errorf("got %s, want None, str or list of str", v.Type())
	}

	return nil
}

func (p *modeParam) Unpack(v starlark.Value) error {
	s, ok := starlark.AsString(v)
	if !ok {
		return fmt.Errorf("got %s, want str", v.Type())
	}

	mode, err := regexdev.ParseMatchMode(s)
	if err != nil {
		return err
	}

	p.mode = mode
	return nil
}

// modEvaluate evaluates a pattern against a subject and returns an `outcome`.
// Malformed patterns do not raise an error; they are reported by the outcome.
func modEvaluate(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern, subject string
		flags            flagsParam
		mode             modeParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "subject", &subject, "flags?", &flags, "mode?", &mode); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Module)

	o, a := m.ev.Evaluate(threadContext(thread), regexdev.Request{
		Pattern: pattern,
		Flags:   flags.set,
		Mode:    mode.mode,
		Subject: subject,
	})

	return newOutcome(o, a, subject), nil
}

// modCompile compiles a pattern into a `pattern` object, which can be used for matching
// using its `search` and `fullmatch` methods. A malformed pattern raises an error.
func modCompile(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		pattern string
		flags   flagsParam
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "pattern", &pattern, "flags?", &flags); err != nil {
		return nil, err
	}

	if pattern == "" {
		return nil, errors.New("empty pattern")
	}

	m := b.Receiver().(*Module)

	p, perr := m.ev.Compile(pattern, flags.set)
	if perr != nil {
		return nil, perr
	}

	return &Pattern{p: p}, nil
}

// modFlags returns the normalized names of the given flags, e.g. `flags("im")` returns ["CASE_INSENSITIVE", "MULTILINE"].
func modFlags(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var flags flagsParam
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "flags", &flags); err != nil {
		return nil, err
	}

	return flagList(flags.set), nil
}

// modPurge clears the cache of compiled patterns.
func modPurge(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Module)
	m.ev.Purge()

	return starlark.None, nil
}

func flagList(set regex.FlagSet) *starlark.List {
	flags := set.Flags()

	l := make([]starlark.Value, len(flags))
	for i, f := range flags {
		l[i] = starlark.String(f.String())
	}

	return starlark.NewList(l)
}

// contextKey is the thread local key of the context of a thread.
const contextKey = "context"

// SetContext attaches a context to the thread, which is used to cancel evaluations.
func SetContext(thread *starlark.Thread, ctx context.Context) {
	thread.SetLocal(contextKey, ctx)
}

func threadContext(thread *starlark.Thread) context.Context {
	if thread != nil {
		if ctx, ok := thread.Local(contextKey).(context.Context); ok {
			return ctx
		}
	}

	return context.Background()
}

// spanTuple converts a span into the tuple (start, end).
func spanTuple(s regexdev.Span) starlark.Tuple {
	return starlark.Tuple{starlark.MakeInt(s.Start), starlark.MakeInt(s.End)}
}
