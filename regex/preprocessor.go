package regex

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

// preprocessor translates a pattern and its flags into the pattern strings and options of the backends.
type preprocessor struct {
	orig    string     // pattern as typed
	pattern string     // pattern after normalization; equal to `orig` without CANON_EQ
	offsets *offsetMap // maps positions in `pattern` back to `orig`; nil if both are equal
	flags   FlagSet
}

func newPreprocessor(s string, flags FlagSet) *preprocessor {
	p := &preprocessor{
		orig:    s,
		pattern: s,
		flags:   flags,
	}

	// Normalizing the pattern composes literal characters the same way the subject is composed.
	// Escape sequences are ASCII and therefore left untouched.
	if flags.IsEnabled(FlagCanonEq) {
		p.pattern, p.offsets = normalize(s)
	}

	return p
}

// isStdSupported checks, whether the flags can be expressed by the regexp engine of the Go stdlib.
func (p *preprocessor) isStdSupported() bool {
	return p.checkStdFlags() == nil
}

// checkStdFlags returns an error for flags, that the stdlib engine cannot express.
// The error has no position, since it does not refer to the pattern text.
func (p *preprocessor) checkStdFlags() error {
	for _, f := range []Flag{FlagComments, FlagUnicodeCharacterClass} {
		if p.flags.IsEnabled(f) && !p.flags.IsEnabled(FlagLiteral) {
			return &SyntaxError{
				Pattern: p.orig,
				Index:   -1,
				Message: "flag " + f.String() + " is not supported by the re2 backend",
			}
		}
	}

	return nil
}

// stdPrefix returns the embedded flag expression for the stdlib engine, e.g. "(?im)".
func (p *preprocessor) stdPrefix() string {
	var b strings.Builder

	if p.flags.IsEnabled(FlagCaseInsensitive) {
		b.WriteByte('i')
	}
	if p.flags.IsEnabled(FlagMultiline) {
		b.WriteByte('m')
	}
	if p.flags.IsEnabled(FlagDotAll) {
		b.WriteByte('s')
	}

	if b.Len() == 0 {
		return ""
	}

	return "(?" + b.String() + ")"
}

// stdBody returns the pattern without flags for the stdlib engine.
func (p *preprocessor) stdBody() string {
	if p.flags.IsEnabled(FlagLiteral) {
		return regexp.QuoteMeta(p.pattern)
	}

	return p.pattern
}

func (p *preprocessor) stdPattern() string {
	return p.stdPrefix() + p.stdBody()
}

// fallbackTranslate rewrites a pattern for the regexp2 engine and returns the keys of its capture groups
// in the order of their opening parentheses. The key of an unnamed group is its number among the unnamed groups.
//
// RE2 style named groups "(?P<name>...)" become "(?<name>...)". Without UNICODE_CHARACTER_CLASS,
// the shorthand classes \d, \s and \w (and their negations) are replaced by their ASCII ranges.
// The translation works character by character, so the translation of a prefix is a prefix of the translation.
func (p *preprocessor) fallbackTranslate(s string) (string, []string) {
	if p.flags.IsEnabled(FlagLiteral) {
		return regexp2.Escape(s), nil
	}

	ascii := !p.flags.IsEnabled(FlagUnicodeCharacterClass)
	comments := p.flags.IsEnabled(FlagComments)

	var (
		b       strings.Builder
		groups  []string
		unnamed int
		depth   int // nesting of character classes
	)

	chars := []rune(s)
	n := len(chars)

	for i := 0; i < n; i++ {
		c := chars[i]

		switch {
		case c == '\\' && i+1 < n:
			i++

			if r, ok := asciiClass(chars[i], depth > 0); ok && ascii {
				b.WriteString(r)
			} else {
				b.WriteRune(c)
				b.WriteRune(chars[i])
			}

			continue

		case c == '[' && (depth == 0 || chars[i-1] == '-'): // '-[' is a class subtraction
			depth++
			b.WriteRune(c)

			if i+1 < n && chars[i+1] == '^' {
				i++
				b.WriteRune(chars[i])
			}
			// a ']' directly after the opening bracket is a literal
			if i+1 < n && chars[i+1] == ']' {
				i++
				b.WriteRune(chars[i])
			}

			continue

		case c == ']' && depth > 0:
			depth--

		case depth > 0:
			// class member

		case c == '#' && comments:
			end := i
			for end < n && chars[end] != '\n' {
				end++
			}

			b.WriteString(string(chars[i:end]))
			i = end - 1

			continue

		case c == '(':
			rest := string(chars[i+1 : min(i+4, n)])

			switch {
			case strings.HasPrefix(rest, "?#"):
				end := i
				for end < n && chars[end] != ')' {
					end++
				}

				b.WriteString(string(chars[i:min(end+1, n)]))
				i = end

				continue

			case strings.HasPrefix(rest, "?P<"):
				b.WriteString("(?<")
				i += 3
				groups = appendGroupName(groups, chars[i+1:], '>')

				continue

			case strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!"):
				groups = appendGroupName(groups, chars[i+3:], '>')
			case strings.HasPrefix(rest, "?'"):
				groups = appendGroupName(groups, chars[i+3:], '\'')
			case !strings.HasPrefix(rest, "?"):
				unnamed++
				groups = append(groups, strconv.Itoa(unnamed))
			}
		}

		b.WriteRune(c)
	}

	return b.String(), groups
}

// appendGroupName appends the name of a group, that starts at `s` and ends with `end`.
// For a balancing group "name-other", the name is the part before '-'.
func appendGroupName(groups []string, s []rune, end rune) []string {
	for i, c := range s {
		if c == end {
			name, _, _ := strings.Cut(string(s[:i]), "-")
			if name != "" {
				groups = append(groups, name)
			}

			break
		}
	}

	return groups
}

// asciiClasses contains the ASCII ranges of the shorthand classes, as defined by RE2.
var asciiClasses = map[rune]string{
	'd': `0-9`,
	's': `\t\n\f\r\x20`,
	'w': `0-9A-Za-z_`,
}

// asciiComplements contains the complements of `asciiClasses` for use inside of brackets.
var asciiComplements = map[rune]string{
	'd': `\x00-\x2F\x3A-\x{10FFFF}`,
	's': `\x00-\x08\x0B\x0E-\x1F\x21-\x{10FFFF}`,
	'w': `\x00-\x2F\x3A-\x40\x5B-\x5E\x60\x7B-\x{10FFFF}`,
}

// asciiClass returns the replacement of the shorthand class `\c`.
// Outside of brackets, a negated class becomes a negated set, so case folding applies before the negation.
func asciiClass(c rune, inClass bool) (string, bool) {
	if r, ok := asciiClasses[c]; ok {
		if inClass {
			return r, true
		}
		return "[" + r + "]", true
	}

	lower := unicode.ToLower(c)
	if r, ok := asciiClasses[lower]; ok && lower != c {
		if inClass {
			return asciiComplements[lower], true
		}
		return "[^" + r + "]", true
	}

	return "", false
}

// fallbackOptions converts the flags into regexp2 options.
// UNIX_LINES and UNICODE_CASE need no option: regexp2 only treats '\n' as line terminator
// and always folds the whole Unicode range.
func (p *preprocessor) fallbackOptions() regexp2.RegexOptions {
	options := regexp2.None

	if p.flags.IsEnabled(FlagCaseInsensitive) {
		options |= regexp2.IgnoreCase
	}
	if p.flags.IsEnabled(FlagMultiline) {
		options |= regexp2.Multiline
	}
	if p.flags.IsEnabled(FlagDotAll) {
		options |= regexp2.Singleline
	}
	if p.flags.IsEnabled(FlagComments) {
		options |= regexp2.IgnorePatternWhitespace
	}

	return options
}
