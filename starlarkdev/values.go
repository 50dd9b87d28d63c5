package starlarkdev

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/regex"
	"github.com/magnetde/regexdev/util"
)

// Pattern object

// Pattern is the Starlark value of a compiled pattern.
type Pattern struct {
	p *regex.Pattern
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value      = (*Pattern)(nil)
	_ starlark.HasAttrs   = (*Pattern)(nil)
	_ starlark.Comparable = (*Pattern)(nil)
)

func (p *Pattern) String() string {
	var b strings.Builder

	b.WriteString("regexdev.compile(")
	b.WriteString(util.Repr(p.p.String()))

	if flags := p.p.Flags(); !flags.Empty() {
		b.WriteString(", flags=")
		b.WriteString(util.Repr(flags.String()))
	}

	b.WriteByte(')')

	return b.String()
}

func (p *Pattern) Type() string          { return "pattern" }
func (p *Pattern) Freeze()               {}
func (p *Pattern) Truth() starlark.Bool  { return true }
func (p *Pattern) Hash() (uint32, error) { return starlark.String(p.p.String()).Hash() }

// patternMethods contains methods of the pattern object.
var patternMethods = map[string]*starlark.Builtin{
	"search":    starlark.NewBuiltin("search", patternSearch),
	"fullmatch": starlark.NewBuiltin("fullmatch", patternFullmatch),
}

// patternMembers contains members of the pattern object.
var patternMembers = map[string]func(p *Pattern) starlark.Value{
	"pattern": func(p *Pattern) starlark.Value { return starlark.String(p.p.String()) },
	"flags":   func(p *Pattern) starlark.Value { return flagList(p.p.Flags()) },
	"groups":  func(p *Pattern) starlark.Value { return starlark.MakeInt(p.p.NumGroups()) },
	"backend": func(p *Pattern) starlark.Value { return starlark.String(p.p.Backend().String()) },
}

// Attr gets a value for a string attribute.
func (p *Pattern) Attr(name string) (starlark.Value, error) {
	if o, ok := patternMethods[name]; ok {
		return o.BindReceiver(p), nil
	}

	if o, ok := patternMembers[name]; ok {
		return o(p), nil
	}

	return nil, nil
}

// AttrNames lists available dot expression strings.
func (p *Pattern) AttrNames() []string {
	return attrNames(patternMethods, patternMembers)
}

func (p *Pattern) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	o := y.(*Pattern)

	switch op {
	case syntax.EQL:
		return patternEquals(p, o), nil
	case syntax.NEQ:
		return !patternEquals(p, o), nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", p.Type(), op, o.Type())
	}
}

func patternEquals(x, y *Pattern) bool {
	return x.p.String() == y.p.String() && x.p.Flags() == y.p.Flags() && x.p.Backend() == y.p.Backend()
}

// patternSearch returns a list of all non-overlapping matches in the subject.
func patternSearch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subject string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "subject", &subject); err != nil {
		return nil, err
	}

	p := b.Receiver().(*Pattern)

	results, err := regexdev.Run(threadContext(thread), p.p, subject, regexdev.Search)
	if err != nil {
		return nil, err
	}

	l := make([]starlark.Value, len(results))
	for i, r := range results {
		l[i] = newMatch(r, subject)
	}

	return starlark.NewList(l), nil
}

// patternFullmatch returns the match, if the whole subject matches the pattern, else None.
func patternFullmatch(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var subject string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "subject", &subject); err != nil {
		return nil, err
	}

	p := b.Receiver().(*Pattern)

	results, err := regexdev.Run(threadContext(thread), p.p, subject, regexdev.FullMatch)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return starlark.None, nil
	}

	return newMatch(results[0], subject), nil
}

// Match object

// Match is the Starlark value of a single match result.
type Match struct {
	r     regexdev.MatchResult
	value string // text of the whole match
}

// newMatch creates a new match object.
func newMatch(r regexdev.MatchResult, subject string) *Match {
	chars := []rune(subject)

	return &Match{
		r:     r,
		value: string(chars[r.Span.Start:r.Span.End]),
	}
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value      = (*Match)(nil)
	_ starlark.HasAttrs   = (*Match)(nil)
	_ starlark.Mapping    = (*Match)(nil)
	_ starlark.Comparable = (*Match)(nil)
)

func (m *Match) String() string {
	return fmt.Sprintf("<regexdev.match ordinal=%d, span=%s, match=%s>", m.r.Ordinal, m.r.Span, util.Repr(m.value))
}

func (m *Match) Type() string         { return "match" }
func (m *Match) Freeze()              {}
func (m *Match) Truth() starlark.Bool { return true }

func (m *Match) Hash() (uint32, error) {
	h, _ := starlark.String(m.value).Hash() // string type; no error possible
	h ^= uint32(m.r.Ordinal) ^ uint32(m.r.Span.Start)<<8 ^ uint32(m.r.Span.End)<<16

	for _, g := range m.r.Groups {
		var tmp uint32
		if g.Matched {
			tmp, _ = starlark.String(g.Value).Hash()
			tmp ^= uint32(g.Span.Start) ^ uint32(g.Span.End)
		}

		h ^= tmp
		h *= 16777619
	}

	return h, nil
}

// matchMethods contains methods of the match object.
var matchMethods = map[string]*starlark.Builtin{
	"group":  starlark.NewBuiltin("group", matchGroup),
	"groups": starlark.NewBuiltin("groups", matchGroups),
	"start":  starlark.NewBuiltin("start", matchStart),
	"end":    starlark.NewBuiltin("end", matchEnd),
	"span":   starlark.NewBuiltin("span", matchSpan),
}

// matchMembers contains members of the match object.
var matchMembers = map[string]func(m *Match) starlark.Value{
	"ordinal": func(m *Match) starlark.Value { return starlark.MakeInt(m.r.Ordinal) },
	"match":   func(m *Match) starlark.Value { return starlark.String(m.value) },
	"regs": func(m *Match) starlark.Value {
		r := make(starlark.Tuple, 0, 1+len(m.r.Groups))
		r = append(r, spanTuple(m.r.Span))

		for _, g := range m.r.Groups {
			if g.Matched {
				r = append(r, spanTuple(g.Span))
			} else {
				r = append(r, starlark.Tuple{starlark.MakeInt(-1), starlark.MakeInt(-1)})
			}
		}

		return r
	},
}

// Attr gets a value for a string attribute.
func (m *Match) Attr(name string) (starlark.Value, error) {
	if o, ok := matchMethods[name]; ok {
		return o.BindReceiver(m), nil
	}

	if o, ok := matchMembers[name]; ok {
		return o(m), nil
	}

	return nil, nil
}

// AttrNames lists available dot expression strings.
func (m *Match) AttrNames() []string {
	return attrNames(matchMethods, matchMembers)
}

// Get returns the value corresponding to the specified key.
// For the match object, this is equals with calling the `group` function.
func (m *Match) Get(v starlark.Value) (starlark.Value, bool, error) {
	g, err := m.group(v)
	if err != nil {
		return nil, false, err
	}

	return g, true, nil
}

func (m *Match) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	o := y.(*Match)

	switch op {
	case syntax.EQL:
		return matchEquals(m, o), nil
	case syntax.NEQ:
		return !matchEquals(m, o), nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", m.Type(), op, o.Type())
	}
}

func matchEquals(x, y *Match) bool {
	return x.value == y.value &&
		x.r.Ordinal == y.r.Ordinal &&
		x.r.Span == y.r.Span &&
		slices.Equal(x.r.Groups, y.r.Groups)
}

// lookup returns the span and the value of a group, where group 0 is the whole match.
// Groups are addressed by their number, which is not necessarily their position.
func (m *Match) lookup(v starlark.Value) (regexdev.CaptureGroup, error) {
	var i int
	if err := starlark.AsInt(v, &i); err != nil {
		return regexdev.CaptureGroup{}, fmt.Errorf("group index: %w", err)
	}

	if i == 0 {
		return regexdev.CaptureGroup{Value: m.value, Matched: true, Span: m.r.Span}, nil
	}

	for _, g := range m.r.Groups {
		if g.Index == i {
			return g, nil
		}
	}

	return regexdev.CaptureGroup{}, errors.New("IndexError: no such group")
}

func (m *Match) group(v starlark.Value) (starlark.Value, error) {
	g, err := m.lookup(v)
	if err != nil {
		return nil, err
	}

	if !g.Matched {
		return starlark.None, nil
	}

	return starlark.String(g.Value), nil
}

var zeroInt = starlark.MakeInt(0)

func matchGroup(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), nil, kwargs); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)
	size := len(args)

	switch size {
	case 0:
		return m.group(zeroInt)
	case 1:
		return m.group(args[0])
	default:
		result := make(starlark.Tuple, size)

		for i := range result {
			g, err := m.group(args[i])
			if err != nil {
				return nil, err
			}

			result[i] = g
		}

		return result, nil
	}
}

func matchGroups(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var defaultValue starlark.Value = starlark.None
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "default?", &defaultValue); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)

	result := make(starlark.Tuple, 0, len(m.r.Groups))

	for _, group := range m.r.Groups {
		var g starlark.Value
		if group.Matched {
			g = starlark.String(group.Value)
		} else {
			g = defaultValue
		}

		result = append(result, g)
	}

	return result, nil
}

// matchPosition implements `start`, `end` and `span`, which only differ in their return value.
func matchPosition(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, f func(s, e int) starlark.Value) (starlark.Value, error) {
	var group starlark.Value = zeroInt
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "group?", &group); err != nil {
		return nil, err
	}

	m := b.Receiver().(*Match)

	g, err := m.lookup(group)
	if err != nil {
		return nil, err
	}

	if !g.Matched {
		return f(-1, -1), nil
	}

	return f(g.Span.Start, g.Span.End), nil
}

func matchStart(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return matchPosition(b, args, kwargs, func(s, _ int) starlark.Value { return starlark.MakeInt(s) })
}

func matchEnd(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return matchPosition(b, args, kwargs, func(_, e int) starlark.Value { return starlark.MakeInt(e) })
}

func matchSpan(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return matchPosition(b, args, kwargs, func(s, e int) starlark.Value {
		return starlark.Tuple{starlark.MakeInt(s), starlark.MakeInt(e)}
	})
}

// Outcome object

// Outcome is the Starlark value of an evaluation, together with its display artifacts.
type Outcome struct {
	o       regexdev.Outcome
	a       regexdev.DisplayArtifacts
	subject string
}

func newOutcome(o regexdev.Outcome, a regexdev.DisplayArtifacts, subject string) *Outcome {
	return &Outcome{o: o, a: a, subject: subject}
}

// Check, if the type satisfies the interfaces.
var (
	_ starlark.Value    = (*Outcome)(nil)
	_ starlark.HasAttrs = (*Outcome)(nil)
)

func (o *Outcome) String() string {
	switch {
	case o.o.Err != nil:
		return fmt.Sprintf("<regexdev.outcome error=%s, offset=%d>", util.Repr(o.o.Err.Message), o.o.Err.Offset)
	case o.o.Idle:
		return "<regexdev.outcome idle>"
	default:
		return fmt.Sprintf("<regexdev.outcome matches=%d>", len(o.o.Results))
	}
}

func (o *Outcome) Type() string          { return "outcome" }
func (o *Outcome) Freeze()               {}
func (o *Outcome) Truth() starlark.Bool  { return starlark.Bool(o.o.OK()) }
func (o *Outcome) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", o.Type()) }

// outcomeMembers contains members of the outcome object.
var outcomeMembers = map[string]func(o *Outcome) starlark.Value{
	"ok":   func(o *Outcome) starlark.Value { return starlark.Bool(o.o.OK()) },
	"idle": func(o *Outcome) starlark.Value { return starlark.Bool(o.o.Idle) },
	"error": func(o *Outcome) starlark.Value {
		if o.o.Err == nil {
			return starlark.None
		}

		return starlark.String(o.o.Err.Message)
	},
	"offset": func(o *Outcome) starlark.Value {
		if o.o.Err == nil {
			return starlark.None
		}

		return starlark.MakeInt(o.o.Err.Offset)
	},
	"matches": func(o *Outcome) starlark.Value {
		l := make([]starlark.Value, len(o.o.Results))
		for i, r := range o.o.Results {
			l[i] = newMatch(r, o.subject)
		}

		return starlark.NewList(l)
	},
	"spans": func(o *Outcome) starlark.Value {
		l := make([]starlark.Value, len(o.a.HighlightSpans))
		for i, s := range o.a.HighlightSpans {
			l[i] = spanTuple(s)
		}

		return starlark.NewList(l)
	},
	"listing": func(o *Outcome) starlark.Value { return starlark.String(o.a.GroupListing) },
	"marker": func(o *Outcome) starlark.Value {
		if o.a.ErrorMarker == nil {
			return starlark.None
		}

		return spanTuple(o.a.ErrorMarker.Span)
	},
}

// Attr gets a value for a string attribute.
func (o *Outcome) Attr(name string) (starlark.Value, error) {
	if f, ok := outcomeMembers[name]; ok {
		return f(o), nil
	}

	return nil, nil
}

// AttrNames lists available dot expression strings.
func (o *Outcome) AttrNames() []string {
	return attrNames[*Outcome](nil, outcomeMembers)
}

// attrNames returns the sorted names of all methods and members of a value.
func attrNames[T any](methods map[string]*starlark.Builtin, members map[string]func(T) starlark.Value) []string {
	names := make([]string, 0, len(methods)+len(members))

	for name := range methods {
		names = append(names, name)
	}
	for name := range members {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}
