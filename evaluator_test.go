package regexdev

import (
	"bytes"
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetde/regexdev/internal/logging"
	"github.com/magnetde/regexdev/regex"
)

func newTestEvaluator(t *testing.T, opts regex.Options) *Evaluator {
	t.Helper()

	return NewEvaluator(Config{
		Options:   opts,
		CacheSize: DefaultCacheSize,
		Logger:    logging.Discard(),
	})
}

func evaluate(t *testing.T, ev *Evaluator, pattern, flags string, mode MatchMode, subject string) Outcome {
	t.Helper()

	set, err := regex.ParseFlagSet(flags)
	require.NoError(t, err)

	return ev.Outcome(context.Background(), Request{
		Pattern: pattern,
		Flags:   set,
		Mode:    mode,
		Subject: subject,
	})
}

func TestScenarios(t *testing.T) {
	for _, backend := range []regex.Backend{regex.BackendBacktrack, regex.BackendRE2, regex.BackendAuto} {
		t.Run(backend.String(), func(t *testing.T) {
			ev := newTestEvaluator(t, regex.Options{Backend: backend})

			t.Run("search with group", func(t *testing.T) {
				o := evaluate(t, ev, "a(b)c", "", Search, "abcabc")

				want := []MatchResult{
					{Ordinal: 0, Span: Span{0, 3}, Groups: []CaptureGroup{{Index: 1, Value: "b", Matched: true, Span: Span{1, 2}}}},
					{Ordinal: 1, Span: Span{3, 6}, Groups: []CaptureGroup{{Index: 1, Value: "b", Matched: true, Span: Span{4, 5}}}},
				}
				if diff := cmp.Diff(Outcome{Results: want}, o); diff != "" {
					t.Errorf("outcome mismatch (-want +got):\n%s", diff)
				}

				a := Project(o)
				assert.Equal(t, []Span{{0, 3}, {3, 6}}, a.HighlightSpans)
				assert.Equal(t, "0: [1] 'b'\n1: [1] 'b'", a.GroupListing)
				assert.Nil(t, a.ErrorMarker)
			})

			t.Run("full match without groups", func(t *testing.T) {
				o := evaluate(t, ev, "^abc$", "", FullMatch, "abc")

				require.True(t, o.OK())
				require.Len(t, o.Results, 1)
				assert.Equal(t, FullMatchOrdinal, o.Results[0].Ordinal)
				assert.Equal(t, Span{0, 3}, o.Results[0].Span)
				assert.Empty(t, o.Results[0].Groups)

				a := Project(o)
				assert.Equal(t, []Span{{0, 3}}, a.HighlightSpans)
				assert.Empty(t, a.GroupListing)
			})

			t.Run("unterminated class", func(t *testing.T) {
				o := evaluate(t, ev, "[a-", "", Search, "anything")

				require.False(t, o.OK())
				assert.Empty(t, o.Results)
				assert.NotEmpty(t, o.Err.Message)
				assert.GreaterOrEqual(t, o.Err.Offset, 0)
				assert.LessOrEqual(t, o.Err.Offset, 2)

				a := Project(o)
				require.NotNil(t, a.ErrorMarker)
				assert.Equal(t, Span{o.Err.Offset, o.Err.Offset + 1}, a.ErrorMarker.Span)
				assert.Equal(t, o.Err.Message, a.ErrorMarker.Message)
				assert.Empty(t, a.HighlightSpans)
			})

			t.Run("empty pattern", func(t *testing.T) {
				o := evaluate(t, ev, "", "", Search, "anything")

				assert.True(t, o.OK())
				assert.True(t, o.Idle)
				assert.Empty(t, o.Results)
				assert.Equal(t, DisplayArtifacts{}, Project(o))
			})

			t.Run("named group before unnamed group", func(t *testing.T) {
				o := evaluate(t, ev, "(?P<n>a)(b)", "", Search, "ab")

				require.True(t, o.OK())
				assert.Equal(t, "0: [1] 'a', [2] 'b'", Project(o).GroupListing)
			})

			t.Run("absent group", func(t *testing.T) {
				o := evaluate(t, ev, "(a)(b)?", "", FullMatch, "a")

				require.True(t, o.OK())
				require.Len(t, o.Results, 1)

				groups := o.Results[0].Groups
				require.Len(t, groups, 2)
				assert.Equal(t, CaptureGroup{Index: 1, Value: "a", Matched: true, Span: Span{0, 1}}, groups[0])
				assert.Equal(t, CaptureGroup{Index: 2}, groups[1])

				assert.Equal(t, "1: [1] 'a', [2] null", Project(o).GroupListing)
			})
		})
	}
}

func TestErrorOffsets(t *testing.T) {
	tests := []struct {
		pattern string
		backend regex.Backend
		offset  int
	}{
		{"(abc", regex.BackendBacktrack, 3},
		{"a)", regex.BackendBacktrack, 1},
		{`ab\`, regex.BackendBacktrack, 2},
		{"(abc", regex.BackendRE2, 3},
		{"x**", regex.BackendRE2, 2},
		{"[**]a**", regex.BackendRE2, 6},
		{"[a]b**", regex.BackendBacktrack, 5},
		{"a\n(b", regex.BackendBacktrack, 3},
		{"ä(", regex.BackendBacktrack, 1},
		{"a b", regex.BackendRE2, -1}, // COMMENTS is not supported
	}

	for _, tt := range tests {
		t.Run(tt.backend.String()+"/"+tt.pattern, func(t *testing.T) {
			ev := newTestEvaluator(t, regex.Options{Backend: tt.backend})

			flags := ""
			if tt.offset < 0 {
				flags = "x"
			}

			o := evaluate(t, ev, tt.pattern, flags, Search, "subject")
			require.NotNil(t, o.Err)
			assert.Equal(t, tt.offset, o.Err.Offset)
			assert.Equal(t, tt.pattern, o.Err.Pattern)

			// the marker is always inside the pattern
			n := utf8.RuneCountInString(tt.pattern)
			m := Project(o).ErrorMarker
			require.NotNil(t, m)
			assert.GreaterOrEqual(t, m.Span.Start, 0)
			assert.Less(t, m.Span.Start, n)
			assert.Equal(t, 1, m.Span.Len())
		})
	}
}

func TestSearchProperties(t *testing.T) {
	tests := []struct {
		pattern string
		subject string
	}{
		{"a*", "baaac"},
		{"", "abc"},
		{`\b`, "hello world"},
		{"(x)?", "axbx"},
		{"ä|b", "äbäb"},
		{".", "日本語"},
		{"(?m)^", "a\nb\nc"},
	}

	for _, backend := range []regex.Backend{regex.BackendBacktrack, regex.BackendRE2} {
		ev := newTestEvaluator(t, regex.Options{Backend: backend})

		for _, tt := range tests {
			t.Run(backend.String()+"/"+tt.pattern, func(t *testing.T) {
				o := evaluate(t, ev, tt.pattern, "", Search, tt.subject)
				require.True(t, o.OK())

				n := utf8.RuneCountInString(tt.subject)
				prevEnd := -1
				prevStart := -1

				for i, r := range o.Results {
					assert.Equal(t, i, r.Ordinal)
					assert.LessOrEqual(t, 0, r.Span.Start)
					assert.LessOrEqual(t, r.Span.Start, r.Span.End)
					assert.LessOrEqual(t, r.Span.End, n)

					assert.Greater(t, r.Span.Start, prevStart, "starts must be strictly increasing")
					assert.GreaterOrEqual(t, r.Span.Start, prevEnd, "spans must not overlap")

					prevStart = r.Span.Start
					prevEnd = r.Span.End
				}

				// deterministic
				again := evaluate(t, ev, tt.pattern, "", Search, tt.subject)
				if diff := cmp.Diff(o, again); diff != "" {
					t.Errorf("repeated evaluation differs (-first +second):\n%s", diff)
				}
			})
		}
	}
}

func TestEmptyMatches(t *testing.T) {
	// The backtracking engine reports the empty match at the end of the subject,
	// RE2 drops empty matches directly after a previous match.
	ev := newTestEvaluator(t, regex.Options{Backend: regex.BackendBacktrack})
	o := evaluate(t, ev, "a*", "", Search, "baaa")
	assert.Equal(t, []Span{{0, 0}, {1, 4}, {4, 4}}, Project(o).HighlightSpans)

	ev = newTestEvaluator(t, regex.Options{Backend: regex.BackendRE2})
	o = evaluate(t, ev, "a*", "", Search, "baaa")
	assert.Equal(t, []Span{{0, 0}, {1, 4}}, Project(o).HighlightSpans)
}

func TestFullMatchProperties(t *testing.T) {
	ev := newTestEvaluator(t, regex.Options{})

	tests := []struct {
		pattern string
		subject string
		match   bool
	}{
		{"abc", "abc", true},
		{"abc", "abcd", false},
		{"b", "abc", false},
		{"a|ab", "ab", true},
		{"a*", "aaa", true},
		{".*", "line\nbreak", false},
		{"(?s).*", "line\nbreak", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			o := evaluate(t, ev, tt.pattern, "", FullMatch, tt.subject)
			require.True(t, o.OK())

			if !tt.match {
				assert.Empty(t, o.Results)
				return
			}

			require.Len(t, o.Results, 1)
			assert.Equal(t, Span{0, utf8.RuneCountInString(tt.subject)}, o.Results[0].Span)
		})
	}
}

func TestFlags(t *testing.T) {
	ev := newTestEvaluator(t, regex.Options{})

	o := evaluate(t, ev, "abc", "", Search, "ABC abc")
	assert.Equal(t, []Span{{4, 7}}, Project(o).HighlightSpans)

	o = evaluate(t, ev, "abc", "i", Search, "ABC abc")
	assert.Equal(t, []Span{{0, 3}, {4, 7}}, Project(o).HighlightSpans)

	o = evaluate(t, ev, "^b$", "", Search, "a\nb\nc")
	assert.Empty(t, o.Results)

	o = evaluate(t, ev, "^b$", "MULTILINE", Search, "a\nb\nc")
	assert.Equal(t, []Span{{2, 3}}, Project(o).HighlightSpans)

	o = evaluate(t, ev, "a.c", "LITERAL", Search, "abc a.c")
	assert.Equal(t, []Span{{4, 7}}, Project(o).HighlightSpans)

	o = evaluate(t, ev, "a b c # letters", "x", Search, "abc")
	assert.Equal(t, []Span{{0, 3}}, Project(o).HighlightSpans)

	// a final line break does not keep '$' from matching
	for _, flags := range []string{"", "i", "s", "x", "UNICODE_CHARACTER_CLASS", "CANON_EQ"} {
		o = evaluate(t, ev, "b$", flags, Search, "ab\n")
		assert.Equal(t, []Span{{1, 2}}, Project(o).HighlightSpans, flags)
	}

	// inert flags do not change the outcome
	plain := evaluate(t, ev, `(\w+)`, "", Search, "one two")
	inert := evaluate(t, ev, `(\w+)`, "UNIX_LINES,UNICODE_CASE", Search, "one two")
	assert.Equal(t, plain, inert)
}

func TestEmptySubject(t *testing.T) {
	ev := newTestEvaluator(t, regex.Options{})

	for _, pattern := range []string{"a", "a*", "(", ""} {
		for _, mode := range []MatchMode{Search, FullMatch} {
			o := evaluate(t, ev, pattern, "", mode, "")
			assert.True(t, o.OK(), pattern)
			assert.True(t, o.Idle, pattern)
			assert.Empty(t, o.Results, pattern)
		}
	}
}

func TestUnknownMode(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(Config{Logger: logging.NewWithWriter("debug", &buf)})

	o := ev.Outcome(context.Background(), Request{Pattern: "a", Subject: "a", Mode: MatchMode(7)})
	assert.True(t, o.OK())
	assert.True(t, o.Idle)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "MatchMode(7)")

	_, err := Run(context.Background(), nil, "a", MatchMode(7))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCancellation(t *testing.T) {
	ev := newTestEvaluator(t, regex.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := ev.Outcome(ctx, Request{Pattern: "a", Subject: "aaa"})
	require.NotNil(t, o.Err)
	assert.Equal(t, -1, o.Err.Offset)
	assert.Equal(t, context.Canceled.Error(), o.Err.Message)

	a := Project(o)
	require.NotNil(t, a.ErrorMarker)
	assert.Equal(t, Span{0, 1}, a.ErrorMarker.Span)
}

func TestTimeout(t *testing.T) {
	ev := newTestEvaluator(t, regex.Options{Timeout: 10 * time.Millisecond})

	o := ev.Outcome(context.Background(), Request{
		Pattern: `(a+)+$`,
		Subject: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa!",
	})
	require.NotNil(t, o.Err)
	assert.Equal(t, -1, o.Err.Offset)
	assert.Contains(t, o.Err.Message, regex.ErrTimeout.Error())
}

func TestCompileEmpty(t *testing.T) {
	p, perr := Compile("", regex.FlagSet{}, regex.Options{})
	assert.Nil(t, p)
	assert.Nil(t, perr)

	results, err := Run(context.Background(), nil, "abc", Search)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestEvaluate(t *testing.T) {
	a := Evaluate("a(b)c", regex.FlagSet{}, Search, "abcabc")
	assert.Equal(t, DisplayArtifacts{
		HighlightSpans: []Span{{0, 3}, {3, 6}},
		GroupListing:   "0: [1] 'b'\n1: [1] 'b'",
	}, a)

	// repeated calls produce identical artifacts
	assert.Equal(t, a, Evaluate("a(b)c", regex.FlagSet{}, Search, "abcabc"))

	a = Evaluate("(", regex.FlagSet{}, Search, "abc")
	require.NotNil(t, a.ErrorMarker)
	assert.Equal(t, Span{0, 1}, a.ErrorMarker.Span)
}

func TestParseMatchMode(t *testing.T) {
	for s, want := range map[string]MatchMode{
		"":          Search,
		"search":    Search,
		"Find":      Search,
		"fullmatch": FullMatch,
		"match":     FullMatch,
		"full":      FullMatch,
	} {
		m, err := ParseMatchMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, m, s)
	}

	_, err := ParseMatchMode("replace")
	assert.Error(t, err)

	assert.Equal(t, "fullmatch", FullMatch.String())
	assert.Equal(t, "MatchMode(3)", MatchMode(3).String())
}
