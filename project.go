package regexdev

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrorMarker marks the erroneous character of a pattern.
type ErrorMarker struct {
	Span    Span   `json:"span"`
	Message string `json:"message"`
}

// DisplayArtifacts is the display-ready form of an outcome.
type DisplayArtifacts struct {
	// HighlightSpans contains the span of every match, in order. Spans are neither merged nor deduplicated.
	HighlightSpans []Span `json:"highlight_spans"`

	// GroupListing contains one line per match with capture groups, e.g. "0: [1] 'b', [2] 'c'".
	GroupListing string `json:"group_listing"`

	// ErrorMarker is set for pattern errors only.
	ErrorMarker *ErrorMarker `json:"error_marker,omitempty"`
}

// Projector converts outcomes into display artifacts.
type Projector struct {
	// AbsentText is written unquoted for groups, that did not participate in a match,
	// so it can be told apart from the quoted empty capture ''.
	AbsentText string
}

// DefaultProjector renders absent groups as null.
var DefaultProjector = Projector{AbsentText: "null"}

// Project converts the outcome with the default projector.
func Project(o Outcome) DisplayArtifacts {
	return DefaultProjector.Project(o)
}

// Project converts the outcome into display artifacts.
// The result only depends on the outcome.
func (p Projector) Project(o Outcome) DisplayArtifacts {
	var a DisplayArtifacts

	if o.Err != nil {
		a.ErrorMarker = errorMarker(o.Err)
		return a
	}

	var b strings.Builder

	for _, r := range o.Results {
		a.HighlightSpans = append(a.HighlightSpans, r.Span)

		if len(r.Groups) == 0 {
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		p.writeGroups(&b, r)
	}

	a.GroupListing = b.String()

	return a
}

// writeGroups writes the line "<ordinal>: [1] '<value1>', [2] '<value2>', ...".
func (p Projector) writeGroups(b *strings.Builder, r MatchResult) {
	b.WriteString(strconv.Itoa(r.Ordinal))
	b.WriteByte(':')

	for i, g := range r.Groups {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(" [")
		b.WriteString(strconv.Itoa(g.Index))
		b.WriteString("] ")

		if g.Matched {
			b.WriteByte('\'')
			b.WriteString(g.Value)
			b.WriteByte('\'')
		} else {
			b.WriteString(p.AbsentText)
		}
	}
}

// errorMarker returns a single character span at the error offset, clamped into the pattern.
func errorMarker(e *PatternError) *ErrorMarker {
	n := utf8.RuneCountInString(e.Pattern)

	pos := min(max(e.Offset, 0), max(n-1, 0))

	return &ErrorMarker{
		Span:    Span{Start: pos, End: min(pos+1, max(n, 1))},
		Message: e.Message,
	}
}
