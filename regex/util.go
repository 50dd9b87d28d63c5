package regex

import "unicode"

// isASCIIString checks, if the string only contains ASCII characters.
func isASCIIString(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// growSlice increases the slice's size, if necessary, to guarantee a size
// if n. If the previous capacity was less than n, the slice is filled with
// elements with a value of zero. If n is negative or too large to allocate
// the memory, growSlice panics. For safety reasons, the resulting slice is
// filled with zero values.
// See also slices.Grow.
func growSlice[S ~[]E, E any](s S, n int) S {
	var zero E

	if n < 0 {
		panic("cannot be negative")
	}
	if cap(s) < n {
		s = append(s[:cap(s)], make([]E, n-cap(s))...)
	}

	s = s[:n]
	for i := range s {
		s[i] = zero
	}
	return s
}
