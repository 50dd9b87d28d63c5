package regexdev

import (
	"fmt"
	"strings"
)

// MatchMode selects how the pattern is applied to the subject.
type MatchMode uint8

const (
	// Search finds all non-overlapping matches, scanning from left to right.
	Search MatchMode = iota
	// FullMatch requires the entire subject to match the pattern.
	FullMatch
)

// FullMatchOrdinal is the ordinal of the single result of a FullMatch evaluation.
// It is kept distinct from the zero-based ordinals of Search results.
const FullMatchOrdinal = 1

func (m MatchMode) String() string {
	switch m {
	case Search:
		return "search"
	case FullMatch:
		return "fullmatch"
	default:
		return fmt.Sprintf("MatchMode(%d)", uint8(m))
	}
}

// ParseMatchMode converts a mode name into a mode.
// "find" and "match" are accepted as aliases of "search" and "fullmatch".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "search", "find":
		return Search, nil
	case "fullmatch", "full", "match":
		return FullMatch, nil
	default:
		return 0, fmt.Errorf("unknown match mode %q", s)
	}
}

// Span is a half-open range [Start, End) of character offsets.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of characters covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("(%d, %d)", s.Start, s.End)
}

// CaptureGroup is the value of a numbered group within a single match.
// If the group did not participate in the match, Matched is false and Value is empty;
// this is different from a group, that matched the empty string.
type CaptureGroup struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Matched bool   `json:"matched"`
	Span    Span   `json:"span"`
}

// MatchResult is a single match of an evaluation.
type MatchResult struct {
	Ordinal int            `json:"ordinal"`
	Span    Span           `json:"span"`
	Groups  []CaptureGroup `json:"groups,omitempty"`
}

// PatternError reports a pattern, that could not be compiled, or an evaluation that was aborted.
type PatternError struct {
	Pattern string `json:"-"`

	// Offset is the character offset of the erroneous position in the pattern, or -1 if it is unknown.
	// It is one position before the index reported by the engine.
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

func (e *PatternError) Error() string {
	return e.Message
}

// Outcome is the result of a single evaluation.
// Exactly one of both variants is populated: if Err is nil, the evaluation succeeded and Results holds the matches.
type Outcome struct {
	Results []MatchResult `json:"results"`
	Err     *PatternError `json:"error,omitempty"`

	// Idle is set, if the pattern or the subject is empty and therefore nothing was evaluated.
	Idle bool `json:"idle,omitempty"`
}

// OK reports, whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Err == nil
}
