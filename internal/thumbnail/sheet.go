package thumbnail

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var captionFace = basicfont.Face7x13

const captionPad = 2

// tile is one cell of the contact sheet.
type tile struct {
	img      *image.Gray
	captions []string
}

func captionHeight(lines int) int {
	return lines*captionFace.Height + 2*captionPad
}

// contactSheet lays tiles out on a grid of cols columns, each cell being
// size wide with the captions below the image.
func contactSheet(tiles []tile, cols, size, lines int) *image.Gray {
	if cols <= 0 {
		cols = 1
	}
	cols = min(cols, len(tiles))
	rows := (len(tiles) + cols - 1) / cols
	cellH := size + captionHeight(lines)

	sheet := image.NewGray(image.Rect(0, 0, cols*size, rows*cellH))
	draw.Draw(sheet, sheet.Bounds(), image.Black, image.Point{}, draw.Src)

	for i, t := range tiles {
		x0, y0 := (i%cols)*size, (i/cols)*cellH

		// center the thumbnail in its square
		b := t.img.Bounds()
		off := image.Pt(x0+(size-b.Dx())/2, y0+(size-b.Dy())/2)
		draw.Draw(sheet, b.Add(off), t.img, b.Min, draw.Src)

		d := font.Drawer{Dst: sheet, Src: image.NewUniform(color.White), Face: captionFace}
		for j, c := range t.captions {
			if j >= lines {
				break
			}
			d.Dot = fixed.P(x0+captionPad, y0+size+captionPad+(j+1)*captionFace.Height-captionFace.Descent)
			d.DrawString(clip(c, size))
		}
	}
	return sheet
}

// clip shortens s to what fits in width pixels, keeping the end, which is
// the informative part of a path.
func clip(s string, width int) string {
	n := (width - 2*captionPad) / captionFace.Advance
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[len(r)-n:])
	}
	return "..." + string(r[len(r)-n+3:])
}
