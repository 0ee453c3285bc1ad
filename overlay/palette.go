package overlay

import "image/color"

// Palette is a fixed list of distinct annotation colors addressed by
// index with wraparound.
type Palette []color.RGBA

// DefaultPalette is the stock zone/track color cycle.
var DefaultPalette = Palette{
	{R: 0xA3, G: 0x51, B: 0xFB},
	{R: 0xE6, G: 0x19, B: 0x4B},
	{R: 0x3C, G: 0xB4, B: 0x4B},
	{R: 0xFF, G: 0xE1, B: 0x19},
	{R: 0x00, G: 0x82, B: 0xC8},
	{R: 0xF5, G: 0x82, B: 0x31},
	{R: 0x91, G: 0x1E, B: 0xB4},
	{R: 0x46, G: 0xF0, B: 0xF0},
	{R: 0xF0, G: 0x32, B: 0xE6},
	{R: 0xD2, G: 0xF5, B: 0x3C},
	{R: 0x00, G: 0x80, B: 0x80},
	{R: 0xAA, G: 0x6E, B: 0x28},
}

// ByIdx returns the color for an index, cycling when the index exceeds
// the palette length. Negative indexes map to the first color.
func (p Palette) ByIdx(idx int) color.RGBA {
	if len(p) == 0 {
		return color.RGBA{R: 255, G: 255, B: 255}
	}
	if idx < 0 {
		idx = 0
	}
	return p[idx%len(p)]
}
