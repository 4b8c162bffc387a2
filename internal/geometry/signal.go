package geometry

import (
	"math"
	"strconv"
	"strings"
)

// SquareWavePath maps a string of bits to SVG path data. Each character
// occupies one cell of width gridSize; '1' is drawn at highY and anything
// else at lowY. A vertical step is inserted at every cell boundary where
// the level changes.
//
// An empty string yields a flat line at the midpoint of highY and lowY that
// spans the nominal width, which is zero.
func SquareWavePath(bits string, highY, lowY, gridSize float64) string {
	level := func(c byte) float64 {
		if c == '1' {
			return highY
		}
		return lowY
	}

	var b strings.Builder
	if len(bits) == 0 {
		mid := (highY + lowY) / 2
		b.WriteString("M ")
		writePoint(&b, 0, mid)
		b.WriteString(" L ")
		writePoint(&b, 0, mid)
		return b.String()
	}

	b.WriteString("M ")
	writePoint(&b, 0, level(bits[0]))
	for i := 0; i < len(bits); i++ {
		x := float64(i+1) * gridSize
		y := level(bits[i])
		b.WriteString(" L ")
		writePoint(&b, x, y)
		if i+1 < len(bits) && bits[i+1] != bits[i] {
			b.WriteString(" L ")
			writePoint(&b, x, level(bits[i+1]))
		}
	}
	return b.String()
}

// DecodeSquareWave recovers the bit string drawn by SquareWavePath by
// sampling the level of each cell. Points it cannot parse are skipped.
func DecodeSquareWave(path string, highY, lowY, gridSize float64) string {
	if !(gridSize > 0) {
		return ""
	}
	fields := strings.Fields(path)
	var (
		out   strings.Builder
		prevX = 0.0
	)
	for i := 0; i+2 < len(fields); i += 3 {
		x, errX := strconv.ParseFloat(fields[i+1], 64)
		y, errY := strconv.ParseFloat(fields[i+2], 64)
		if errX != nil || errY != nil {
			continue
		}
		// Only horizontal runs that close a cell carry a bit; vertical
		// steps share the x of the preceding point.
		if fields[i] != "L" || x <= prevX {
			continue
		}
		cells := int(math.Round((x - prevX) / gridSize))
		bit := byte('0')
		if math.Abs(y-highY) < math.Abs(y-lowY) {
			bit = '1'
		}
		for range cells {
			out.WriteByte(bit)
		}
		prevX = x
	}
	return out.String()
}

// formatNumber renders v with the fewest digits that round-trip.
func formatNumber(v float64) string {
	if v == 0 {
		// Avoid "-0".
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writePoint(b *strings.Builder, x, y float64) {
	b.WriteString(formatNumber(x))
	b.WriteByte(' ')
	b.WriteString(formatNumber(y))
}
