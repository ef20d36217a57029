package thumbnail

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/dmitrijs2005/pixels/internal/dicommeta"
)

// Window maps the grey levels of p linearly onto 0..255 using the
// frame's own minimum and maximum. Multi-sample pixels are averaged.
func Window(p *dicommeta.Plane) *image.Gray {
	levels := make([]float64, 0, p.Rows*p.Cols)
	lo, hi := math.Inf(1), math.Inf(-1)

	for y := 0; y < p.Rows; y++ {
		for x := 0; x < p.Cols; x++ {
			v := p.Gray(x, y)
			levels = append(levels, v)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	out := image.NewGray(image.Rect(0, 0, p.Cols, p.Rows))
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}
	for i, v := range levels {
		out.Pix[i] = uint8(math.Round((v - lo) * scale))
	}
	return out
}

// fit returns the size of a w x h image scaled down to fit a box of side
// size, keeping the aspect ratio. Images that already fit are unchanged.
func fit(w, h, size int) (int, int) {
	if size <= 0 || (w <= size && h <= size) {
		return w, h
	}
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}

// Scale shrinks img to fit a size x size box.
func Scale(img *image.Gray, size int) *image.Gray {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), size)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
