package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		name string
		want Flag
	}{
		{"CASE_INSENSITIVE", FlagCaseInsensitive},
		{"case_insensitive", FlagCaseInsensitive},
		{"i", FlagCaseInsensitive},
		{"m", FlagMultiline},
		{"s", FlagDotAll},
		{"x", FlagComments},
		{"d", FlagUnixLines},
		{"u", FlagUnicodeCase},
		{"U", FlagUnicodeCharacterClass},
		{"LITERAL", FlagLiteral},
		{" CANON_EQ ", FlagCanonEq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFlag(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
		})
	}

	for _, name := range []string{"", "I", "q", "IGNORECASE", "LITERAL2"} {
		_, err := ParseFlag(name)
		assert.Error(t, err, name)
	}
}

func TestFlagLabel(t *testing.T) {
	assert.Equal(t, "CASE_INSENSITIVE (?i)", FlagCaseInsensitive.Label())
	assert.Equal(t, "UNICODE_CHARACTER_CLASS (?U)", FlagUnicodeCharacterClass.Label())
	assert.Equal(t, "LITERAL", FlagLiteral.Label())
	assert.Equal(t, "Flag(0)", Flag(0).String())
}

func TestAllFlags(t *testing.T) {
	flags := AllFlags()
	require.Len(t, flags, 9)
	assert.Equal(t, FlagUnixLines, flags[0])
	assert.Equal(t, FlagUnicodeCharacterClass, flags[8])

	for _, f := range flags {
		parsed, err := ParseFlag(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}
}

func TestFlagSet(t *testing.T) {
	var s FlagSet
	assert.True(t, s.Empty())
	assert.Equal(t, "0", s.String())

	s2 := s.Enable(FlagMultiline).Enable(FlagCaseInsensitive)
	assert.True(t, s.Empty(), "Enable must not modify the receiver")
	assert.True(t, s2.IsEnabled(FlagCaseInsensitive))
	assert.True(t, s2.IsEnabled(FlagMultiline))
	assert.False(t, s2.IsEnabled(FlagDotAll))
	assert.Equal(t, "CASE_INSENSITIVE|MULTILINE", s2.String())
	assert.Equal(t, []Flag{FlagCaseInsensitive, FlagMultiline}, s2.Flags())

	// commutative and idempotent
	assert.Equal(t, s2, s.Enable(FlagCaseInsensitive).Enable(FlagMultiline).Enable(FlagCaseInsensitive))
	assert.Equal(t, s2, NewFlagSet(FlagMultiline).Union(NewFlagSet(FlagCaseInsensitive)))

	s3 := s2.Disable(FlagCaseInsensitive)
	assert.Equal(t, NewFlagSet(FlagMultiline), s3)
	assert.Equal(t, s3, s3.Disable(FlagCaseInsensitive))

	assert.Equal(t, s2, s3.Set(FlagCaseInsensitive, true))
	assert.Equal(t, s3, s2.Set(FlagCaseInsensitive, false))

	// invalid flags are ignored
	assert.True(t, NewFlagSet(Flag(0), Flag(200)).Empty())
	assert.False(t, s2.IsEnabled(Flag(0)))
}

func TestParseFlagSet(t *testing.T) {
	tests := []struct {
		in   string
		want FlagSet
	}{
		{"", FlagSet{}},
		{"i", NewFlagSet(FlagCaseInsensitive)},
		{"i,m", NewFlagSet(FlagCaseInsensitive, FlagMultiline)},
		{"im", NewFlagSet(FlagCaseInsensitive, FlagMultiline)},
		{"CASE_INSENSITIVE|DOTALL", NewFlagSet(FlagCaseInsensitive, FlagDotAll)},
		{"literal canon_eq", NewFlagSet(FlagLiteral, FlagCanonEq)},
		{"sU, x", NewFlagSet(FlagDotAll, FlagUnicodeCharacterClass, FlagComments)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseFlagSet(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)

			// String() can be parsed again
			again, err := ParseFlagSet(s.String())
			if s.Empty() {
				assert.Error(t, err) // "0" is not a flag
			} else {
				require.NoError(t, err)
				assert.Equal(t, s, again)
			}
		})
	}

	_, err := ParseFlagSet("i,q")
	assert.EqualError(t, err, `unknown flag "q"`)
}

func TestParseBackend(t *testing.T) {
	for name, want := range map[string]Backend{
		"":          BackendBacktrack,
		"backtrack": BackendBacktrack,
		"regexp2":   BackendBacktrack,
		"RE2":       BackendRE2,
		"stdlib":    BackendRE2,
		"auto":      BackendAuto,
	} {
		b, err := ParseBackend(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, b, name)
	}

	_, err := ParseBackend("pcre")
	assert.Error(t, err)

	assert.Equal(t, "re2", BackendRE2.String())
	assert.Equal(t, "Backend(9)", Backend(9).String())

	var b Backend
	require.NoError(t, b.Set("auto"))
	assert.Equal(t, BackendAuto, b)
	assert.Error(t, b.Set("pcre"))
	assert.Equal(t, BackendAuto, b)
}
