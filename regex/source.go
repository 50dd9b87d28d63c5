package regex

import (
	"errors"
	"fmt"
	"regexp/syntax"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	r2syntax "github.com/dlclark/regexp2/syntax"
)

// SyntaxError describes a pattern, that could not be compiled.
type SyntaxError struct {
	Pattern string // pattern as typed
	Message string // error message of the engine

	// Index is the character offset in the pattern, at which the engine stopped parsing,
	// or -1 if the position is unknown. For errors at the end of the pattern, it equals the pattern length.
	Index int
}

// Error returns the message together with the position of the error.
// If the pattern contains new line characters, the line and column number is also added.
func (e *SyntaxError) Error() string {
	if e.Index < 0 {
		return e.Message
	}

	msg := fmt.Sprintf("%s at position %d", e.Message, e.Index)

	if strings.Contains(e.Pattern, "\n") {
		prefix := e.Pattern
		if r := []rune(e.Pattern); e.Index <= len(r) {
			prefix = string(r[:e.Index])
		}

		lineno := strings.Count(prefix, "\n") + 1
		colno := utf8.RuneCountInString(prefix[strings.LastIndex(prefix, "\n")+1:]) + 1

		msg = fmt.Sprintf("%s (line %d, column %d)", msg, lineno, colno)
	}

	return msg
}

// trimMessage removes the generic prefix of both regex engines.
func trimMessage(err error) string {
	msg := err.Error()
	if e, ok := strings.CutPrefix(msg, "error parsing regexp: "); ok {
		msg = e
	}

	return msg
}

// errorp returns a new error at the given character offset of the preprocessed pattern.
func (p *preprocessor) errorp(msg string, pos int) *SyntaxError {
	if pos >= 0 {
		pos = p.offsets.toOrig(pos, true)
	}

	return &SyntaxError{
		Pattern: p.orig,
		Message: msg,
		Index:   pos,
	}
}

// stdError converts an error of the stdlib parser.
// The parser reports the erroneous fragment of the pattern, which may occur more than once in the pattern.
// The error position is the end of the shortest prefix, that fails with the same code and fragment.
// An empty fragment is reported for errors at the end of the pattern, e.g. a trailing backslash.
func (p *preprocessor) stdError(err error) error {
	var e *syntax.Error
	if !errors.As(err, &e) {
		return p.errorp(trimMessage(err), -1)
	}

	chars := []rune(p.pattern)
	if e.Expr == "" {
		return p.errorp(trimMessage(err), len(chars))
	}

	for n := 1; n <= len(chars); n++ {
		_, perr := syntax.Parse(string(chars[:n]), syntax.Perl)

		var pe *syntax.Error
		if errors.As(perr, &pe) && pe.Code == e.Code && pe.Expr == e.Expr {
			return p.errorp(trimMessage(err), n)
		}
	}

	pos := -1
	if i := strings.LastIndex(p.pattern, e.Expr); i >= 0 {
		pos = utf8.RuneCountInString(p.pattern[:i+len(e.Expr)])
	}

	return p.errorp(trimMessage(err), pos)
}

// Error codes of regexp2, that are only detected at the end of the pattern.
var endOfPatternErrors = map[r2syntax.ErrorCode]bool{
	r2syntax.ErrMissingParen:        true,
	r2syntax.ErrUnterminatedBracket: true,
	r2syntax.ErrUnterminatedComment: true,
	r2syntax.ErrIllegalEndEscape:    true,
}

// fallbackError converts an error of the regexp2 parser.
// Since regexp2 does not report a position, the position is determined by parsing prefixes of the pattern:
// the position is the end of the shortest prefix, that fails with the same error after translation.
func (p *preprocessor) fallbackError(err error, options regexp2.RegexOptions) error {
	var e *r2syntax.Error
	if !errors.As(err, &e) {
		return p.errorp(trimMessage(err), -1)
	}

	msg := e.Code.String()
	if len(e.Args) > 0 {
		msg = fmt.Sprintf(msg, e.Args...)
	}

	chars := []rune(p.pattern)
	if endOfPatternErrors[e.Code] {
		return p.errorp(msg, len(chars))
	}

	want := fmt.Sprint(e.Args...)

	for n := 1; n <= len(chars); n++ {
		prefix, _ := p.fallbackTranslate(string(chars[:n]))
		_, perr := r2syntax.Parse(prefix, r2syntax.RegexOptions(options))

		var pe *r2syntax.Error
		if errors.As(perr, &pe) && pe.Code == e.Code && fmt.Sprint(pe.Args...) == want {
			return p.errorp(msg, n)
		}
	}

	return p.errorp(msg, -1)
}
