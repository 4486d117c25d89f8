// Package icons renders the tray icon set: one glyph image per displayable
// volume percentage plus a muted glyph, and turns them into platform handles.
package icons

import (
	"fmt"
	"image"
	"image/color"
)

const (
	// Size is the width and height of every icon in pixels.
	Size = 16

	GlyphWidth  = 4
	GlyphHeight = 9

	// MaxLevel is the highest displayable percentage.
	MaxLevel = 100
	// MutedIndex is the table slot holding the muted glyph.
	MutedIndex = MaxLevel + 1
	// Count is the number of icons in a Table.
	Count = MutedIndex + 1

	// digitY is the row where digit glyphs start.
	digitY = 3
	// digitPitch is the horizontal distance between digit columns.
	digitPitch = GlyphWidth + 1
)

// DefaultForeground is the stroke color used when none is configured.
var DefaultForeground = color.NRGBA{A: 0xff}

// digitX returns the left edge of digit column k (0 = hundreds, 2 = units).
// The hundreds column starts one pixel off-canvas; its leftmost column is
// clipped, which only drops blank pixels of the "1" glyph.
func digitX(k int) int {
	return -1 + digitPitch*k
}

// Render draws the icon at table index i: 0..MaxLevel yield the percentage,
// MutedIndex yields the muted glyph.
func Render(i int, fg color.NRGBA) (*image.NRGBA, error) {
	switch {
	case i >= 0 && i <= MaxLevel:
		return RenderLevel(i, fg), nil
	case i == MutedIndex:
		return RenderMuted(fg), nil
	}
	return nil, fmt.Errorf("icons: index %d out of range [0,%d]", i, MutedIndex)
}

// RenderLevel draws level (clamped to 0..MaxLevel) as up to three
// right-aligned digits on a transparent canvas.
func RenderLevel(level int, fg color.NRGBA) *image.NRGBA {
	level = clampLevel(level)
	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))

	drawDigit(img, digitX(2), level%10, fg)
	if level >= 10 {
		drawDigit(img, digitX(1), (level/10)%10, fg)
	}
	if level >= 100 {
		drawDigit(img, digitX(0), (level/100)%10, fg)
	}
	return img
}

// RenderMuted draws the speaker-with-cross glyph.
func RenderMuted(fg color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	for y, row := range speaker {
		for x := 0; x < len(row); x++ {
			if row[x] == '#' {
				img.SetNRGBA(speakerX+x, speakerY+y, fg)
			}
		}
	}
	return img
}

func drawDigit(img *image.NRGBA, x0, n int, fg color.NRGBA) {
	glyph := digits[n]
	for y := 0; y < GlyphHeight; y++ {
		for x := 0; x < GlyphWidth; x++ {
			if glyph[y][x] != '#' {
				continue
			}
			// SetNRGBA ignores points outside the canvas.
			img.SetNRGBA(x0+x, digitY+y, fg)
		}
	}
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
