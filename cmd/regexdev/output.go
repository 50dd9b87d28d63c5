package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/util"
)

// result is the JSON document written for an evaluation.
type result struct {
	Outcome   regexdev.Outcome          `json:"outcome"`
	Artifacts regexdev.DisplayArtifacts `json:"artifacts"`
}

func writeJSON(w io.Writer, o regexdev.Outcome, a regexdev.DisplayArtifacts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(result{Outcome: o, Artifacts: a})
}

// writeText writes the artifacts in a human readable form:
// one line per match, followed by the group listing, or the pattern with a marker under the erroneous character.
func writeText(w io.Writer, req regexdev.Request, o regexdev.Outcome, a regexdev.DisplayArtifacts) error {
	var b strings.Builder

	switch {
	case a.ErrorMarker != nil:
		pattern := []rune(req.Pattern)
		start := min(a.ErrorMarker.Span.Start, len(pattern))

		// tabs are kept, so the marker stays aligned in a terminal
		indent := strings.Map(func(r rune) rune {
			if r == '\t' {
				return r
			}
			return ' '
		}, string(pattern[:start]))

		fmt.Fprintf(&b, "%s\n%s^\nerror: %s\n", req.Pattern, indent, a.ErrorMarker.Message)
	case o.Idle:
	case len(o.Results) == 0:
		b.WriteString("no match\n")
	default:
		subject := []rune(req.Subject)

		for _, r := range o.Results {
			fmt.Fprintf(&b, "%d: %s %s\n", r.Ordinal, r.Span, util.Repr(string(subject[r.Span.Start:r.Span.End])))
		}

		if a.GroupListing != "" {
			b.WriteString("groups:\n")
			b.WriteString(a.GroupListing)
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
