package geometry

import (
	"strconv"
	"strings"
)

// StringToBinary encodes every byte of s as eight zero-padded bits.
func StringToBinary(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 8)
	for i := 0; i < len(s); i++ {
		writeBits(&b, uint64(s[i]), 8)
	}
	return b.String()
}

// BinaryToString decodes consecutive 8-bit groups back into bytes. A
// trailing partial group is dropped.
func BinaryToString(bits string) string {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		v, err := strconv.ParseUint(bits[i:i+8], 2, 8)
		if err != nil {
			continue
		}
		out = append(out, byte(v))
	}
	return string(out)
}

// HexToBinary strips every non-hex character from s and encodes each
// remaining nibble as four zero-padded bits.
func HexToBinary(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		n, ok := hexNibble(s[i])
		if !ok {
			continue
		}
		writeBits(&b, uint64(n), 4)
	}
	return b.String()
}

// NumberToBinary formats n in base 2, left-padded with zeros to width.
// Wider numbers are never truncated.
func NumberToBinary(n uint64, width int) string {
	s := strconv.FormatUint(n, 2)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func writeBits(b *strings.Builder, v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		if v>>uint(i)&1 == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
