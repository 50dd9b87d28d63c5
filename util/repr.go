package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Digits of hex strings.
var hexDigits = "0123456789abcdef"

// Repr returns a quoted representation of a string, as it is displayed in match values and listings.
// Single quotes are preferred; double quotes are used if the string contains single quotes but no double quotes.
func Repr(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)

	var quote byte
	if strings.IndexByte(s, '\'') < 0 || strings.IndexByte(s, '"') >= 0 {
		quote = '\''
	} else {
		quote = '"'
	}

	b.WriteByte(quote)

	var ch rune
	for size := 0; len(s) > 0; s = s[size:] {
		ch, size = utf8.DecodeRuneInString(s)

		// Invalid bytes are written as '\xhh'
		if ch == utf8.RuneError && size == 1 {
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[(s[0]>>4)&0xf])
			b.WriteByte(hexDigits[s[0]&0xf])
			continue
		}

		switch {
		case ch == rune(quote) || ch == '\\':
			b.WriteByte('\\')
			b.WriteByte(byte(ch))
		case ch == '\t':
			b.WriteString(`\t`)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\r':
			b.WriteString(`\r`)
		case ch < ' ' || ch == unicode.MaxASCII:
			b.WriteString(`\x`)
			b.WriteByte(hexDigits[(ch>>4)&0xf])
			b.WriteByte(hexDigits[ch&0xf])
		case !unicode.IsPrint(ch):
			hexEscape(&b, ch)
		default:
			b.WriteRune(ch)
		}
	}

	b.WriteByte(quote)

	return b.String()
}

// hexEscape escapes the character to a hex sequence and writes it to the string builder.
func hexEscape(w *strings.Builder, ch rune) {
	w.WriteByte('\\')

	var digits int
	switch {
	case ch <= 0xff: // '\xhh'
		w.WriteByte('x')
		digits = 2
	case ch <= 0xffff: // '\uxxxx'
		w.WriteByte('u')
		digits = 4
	default: // '\U00xxxxxx'
		w.WriteByte('U')
		digits = 8
	}

	for shift := 4 * (digits - 1); shift >= 0; shift -= 4 {
		w.WriteByte(hexDigits[(ch>>shift)&0xf])
	}
}
