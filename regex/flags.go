package regex

import (
	"fmt"
	"strings"
	"time"
)

// Flag is a single compilation modifier.
// The zero value is not a valid flag.
type Flag uint8

// Available flags, in the order they are presented to the user.
// The short names in brackets are the inline letters of the corresponding embedded flag expression.
//
//   - FlagUnixLines: only '\n' terminates a line; (?d)
//   - FlagCaseInsensitive: case-insensitive matching; (?i)
//   - FlagComments: whitespace and '#' comments are ignored in the pattern; (?x)
//   - FlagMultiline: '^' and '$' match at line boundaries; (?m)
//   - FlagLiteral: the pattern is matched as a literal string
//   - FlagDotAll: '.' also matches '\n'; (?s)
//   - FlagUnicodeCase: case folding covers the whole Unicode range; (?u)
//   - FlagCanonEq: canonically equivalent characters match each other
//   - FlagUnicodeCharacterClass: '\d', '\s' and '\w' use the Unicode definitions; (?U)
const (
	FlagUnixLines Flag = iota + 1
	FlagCaseInsensitive
	FlagComments
	FlagMultiline
	FlagLiteral
	FlagDotAll
	FlagUnicodeCase
	FlagCanonEq
	FlagUnicodeCharacterClass

	flagCount = iota
)

// Order must be in sync with the flag constants.
var flagNames = [flagCount]string{
	"UNIX_LINES",
	"CASE_INSENSITIVE",
	"COMMENTS",
	"MULTILINE",
	"LITERAL",
	"DOTALL",
	"UNICODE_CASE",
	"CANON_EQ",
	"UNICODE_CHARACTER_CLASS",
}

// Inline letters; zero for flags without an embedded form.
var flagLetters = [flagCount]byte{'d', 'i', 'x', 'm', 0, 's', 'u', 0, 'U'}

// AllFlags returns every known flag in presentation order.
func AllFlags() []Flag {
	flags := make([]Flag, 0, flagCount)
	for f := Flag(1); f <= flagCount; f++ {
		flags = append(flags, f)
	}

	return flags
}

func (f Flag) valid() bool {
	return f >= 1 && f <= flagCount
}

func (f Flag) String() string {
	if !f.valid() {
		return fmt.Sprintf("Flag(%d)", uint8(f))
	}

	return flagNames[f-1]
}

// Label returns the name of the flag followed by its inline form, if any,
// e.g. "CASE_INSENSITIVE (?i)".
func (f Flag) Label() string {
	if !f.valid() {
		return f.String()
	}

	if c := flagLetters[f-1]; c != 0 {
		return fmt.Sprintf("%s (?%c)", flagNames[f-1], c)
	}

	return flagNames[f-1]
}

// ParseFlag converts a flag name into a flag.
// Accepted are the constant names ("CASE_INSENSITIVE"), their lower-case form and the inline letters ("i").
func ParseFlag(name string) (Flag, error) {
	name = strings.TrimSpace(name)

	if len(name) == 1 {
		for i, c := range flagLetters {
			if c != 0 && c == name[0] {
				return Flag(i + 1), nil
			}
		}
	} else {
		upper := strings.ToUpper(name)
		for i, n := range flagNames {
			if n == upper {
				return Flag(i + 1), nil
			}
		}
	}

	return 0, fmt.Errorf("unknown flag %q", name)
}

// FlagSet is an immutable set of flags.
// The zero value is the empty set.
type FlagSet struct {
	bits uint16
}

// NewFlagSet returns a set containing the given flags.
// Invalid flags are ignored.
func NewFlagSet(flags ...Flag) FlagSet {
	var s FlagSet
	for _, f := range flags {
		s = s.Enable(f)
	}

	return s
}

// ParseFlagSet parses a list of flag names separated by commas, '|' or whitespace.
// A sequence of inline letters such as "im" is accepted as well.
func ParseFlagSet(s string) (FlagSet, error) {
	var set FlagSet

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '\t'
	})

	for _, field := range fields {
		if f, err := ParseFlag(field); err == nil {
			set = set.Enable(f)
			continue
		}

		// try to parse the field as a sequence of inline letters
		letters := set
		for i := 0; i < len(field); i++ {
			f, err := ParseFlag(field[i : i+1])
			if err != nil {
				return FlagSet{}, fmt.Errorf("unknown flag %q", field)
			}

			letters = letters.Enable(f)
		}

		set = letters
	}

	return set, nil
}

func mask(f Flag) uint16 {
	if !f.valid() {
		return 0
	}

	return 1 << (f - 1)
}

// Enable returns a copy of the set with the flag enabled.
func (s FlagSet) Enable(f Flag) FlagSet {
	s.bits |= mask(f)
	return s
}

// Disable returns a copy of the set with the flag disabled.
func (s FlagSet) Disable(f Flag) FlagSet {
	s.bits &^= mask(f)
	return s
}

// Set enables or disables the flag, depending on `on`.
func (s FlagSet) Set(f Flag, on bool) FlagSet {
	if on {
		return s.Enable(f)
	}

	return s.Disable(f)
}

// IsEnabled reports, whether the flag is part of the set.
func (s FlagSet) IsEnabled(f Flag) bool {
	m := mask(f)
	return m != 0 && s.bits&m != 0
}

// Union returns the set containing the flags of both sets.
func (s FlagSet) Union(o FlagSet) FlagSet {
	s.bits |= o.bits
	return s
}

// Empty reports, whether no flag is enabled.
func (s FlagSet) Empty() bool {
	return s.bits == 0
}

// Flags returns the enabled flags in presentation order.
func (s FlagSet) Flags() []Flag {
	var flags []Flag
	for f := Flag(1); f <= flagCount; f++ {
		if s.IsEnabled(f) {
			flags = append(flags, f)
		}
	}

	return flags
}

// String returns the flag names joined by '|', or "0" for the empty set.
func (s FlagSet) String() string {
	if s.Empty() {
		return "0"
	}

	var b strings.Builder
	for i, f := range s.Flags() {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.String())
	}

	return b.String()
}

// Backend selects the engine used to compile and run a pattern.
type Backend uint8

const (
	// BackendBacktrack uses the backtracking engine of regexp2 (backreferences, lookarounds, ...).
	BackendBacktrack Backend = iota
	// BackendRE2 uses the linear time engine of the Go standard library.
	BackendRE2
	// BackendAuto uses RE2, if it can express the pattern and the flags, and falls back to regexp2.
	BackendAuto
)

var backendNames = [...]string{"backtrack", "re2", "auto"}

func (b Backend) String() string {
	if int(b) < len(backendNames) {
		return backendNames[b]
	}

	return fmt.Sprintf("Backend(%d)", uint8(b))
}

// ParseBackend converts a backend name into a backend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "backtrack", "regexp2":
		return BackendBacktrack, nil
	case "re2", "std", "stdlib":
		return BackendRE2, nil
	case "auto":
		return BackendAuto, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", name)
	}
}

// Set parses the backend name, so a *Backend can be used as a flag.Value.
func (b *Backend) Set(name string) error {
	v, err := ParseBackend(name)
	if err != nil {
		return err
	}

	*b = v
	return nil
}

// Options controls how patterns are compiled.
type Options struct {
	Backend Backend

	// Timeout limits a single match attempt of the backtracking engine.
	// Zero disables the limit.
	Timeout time.Duration
}
