package regexdev

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magnetde/regexdev/internal/logging"
	"github.com/magnetde/regexdev/regex"
)

func TestSession(t *testing.T) {
	s := NewSession(NewEvaluator(Config{CacheSize: DefaultCacheSize, Logger: logging.Discard()}))

	assert.True(t, s.Outcome().Idle)
	assert.Equal(t, Search, s.Mode())
	assert.True(t, s.Flags().Empty())

	a := s.SetPattern("abc")
	assert.Equal(t, DisplayArtifacts{}, a, "no subject yet")

	a = s.SetSubject("ABC abc")
	assert.Equal(t, []Span{{4, 7}}, a.HighlightSpans)

	a = s.Toggle(regex.FlagCaseInsensitive, true)
	assert.Equal(t, []Span{{0, 3}, {4, 7}}, a.HighlightSpans)
	assert.True(t, s.Flags().IsEnabled(regex.FlagCaseInsensitive))

	a = s.SetMode(FullMatch)
	assert.Empty(t, a.HighlightSpans)

	a = s.SetSubject("aBc")
	assert.Equal(t, []Span{{0, 3}}, a.HighlightSpans)
	assert.Equal(t, FullMatchOrdinal, s.Outcome().Results[0].Ordinal)

	a = s.SetPattern("a(")
	require.NotNil(t, a.ErrorMarker)
	assert.Empty(t, a.HighlightSpans, "artifacts of the previous evaluation are replaced")
	assert.Equal(t, a, s.Artifacts())

	a = s.Toggle(regex.FlagLiteral, true)
	assert.Nil(t, a.ErrorMarker)
	assert.Empty(t, a.HighlightSpans)

	a = s.SetFlags(regex.FlagSet{})
	require.NotNil(t, a.ErrorMarker)

	assert.Equal(t, Request{Pattern: "a(", Mode: FullMatch, Subject: "aBc"}, s.Request())
}
