package regex

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// offsetMap maps character offsets between a string and its normalized form.
// A nil map is the identity.
type offsetMap struct {
	start  []int // normalized offset -> original offset, for start positions
	end    []int // normalized offset -> original offset, for end positions
	toNorm []int // original offset -> normalized offset
}

// normalize returns the canonical composition (NFC) of s together with the offset mapping.
// Positions inside a composed segment are widened to the boundaries of the segment,
// so a span never splits a character sequence of the original string.
func normalize(s string) (string, *offsetMap) {
	if isASCIIString(s) || norm.NFC.IsNormalString(s) {
		return s, nil
	}

	m := &offsetMap{}

	var out []byte
	var it norm.Iter
	it.InitString(norm.NFC, s)

	prev := 0 // byte position in s
	orig := 0 // rune offset in s
	n := 0    // rune offset in the normalized string

	for !it.Done() {
		seg := it.Next()
		next := it.Pos()

		origLen := utf8.RuneCountInString(s[prev:next])
		normLen := utf8.RuneCount(seg)

		for k := 0; k < normLen; k++ {
			m.start = append(m.start, orig)
			if k == 0 {
				m.end = append(m.end, orig)
			} else {
				m.end = append(m.end, orig+origLen)
			}
		}
		for k := 0; k < origLen; k++ {
			m.toNorm = append(m.toNorm, n)
		}

		out = append(out, seg...)
		prev = next
		orig += origLen
		n += normLen
	}

	m.start = append(m.start, orig)
	m.end = append(m.end, orig)
	m.toNorm = append(m.toNorm, n)

	return string(out), m
}

// toInput converts an offset of the original string into the normalized string.
func (m *offsetMap) toInput(pos int) int {
	if m == nil {
		return pos
	}

	return m.toNorm[min(pos, len(m.toNorm)-1)]
}

// toOrig converts an offset of the normalized string into the original string.
func (m *offsetMap) toOrig(pos int, isEnd bool) int {
	if m == nil {
		return pos
	}

	pos = min(pos, len(m.start)-1)
	if isEnd {
		return m.end[pos]
	}

	return m.start[pos]
}

// apply converts a list of start/end pairs in place; -1 entries are kept.
func (m *offsetMap) apply(a []int) {
	if m == nil {
		return
	}

	for i, v := range a {
		if v >= 0 {
			a[i] = m.toOrig(v, i%2 == 1)
		}
	}
}
