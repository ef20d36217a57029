package dicommeta

import (
	"math"

	"github.com/dmitrijs2005/pixels/internal/models"
)

// pixelStats accumulates statistics over every sample of every frame.
type pixelStats struct {
	min, max float64
	sum      float64
	n        int64
	width    int
	height   int
	frames   int
}

func newPixelStats() *pixelStats {
	return &pixelStats{min: math.Inf(1), max: math.Inf(-1)}
}

// add folds one frame in. The first frame fixes the reported shape.
func (s *pixelStats) add(p *Plane) {
	if s.frames == 0 {
		s.width, s.height = p.Cols, p.Rows
	}
	s.frames++

	for _, v := range p.Values {
		f := float64(v)
		if f < s.min {
			s.min = f
		}
		if f > s.max {
			s.max = f
		}
		s.sum += f
		s.n++
	}
}

// fill writes the statistics into meta. Nothing is written when no pixel
// was observed.
func (s *pixelStats) fill(meta map[string]any) {
	if s.n == 0 {
		return
	}
	meta[models.MetaImgMin] = s.min
	meta[models.MetaImgMax] = s.max
	meta[models.MetaImgAvg] = s.sum / float64(s.n)
	meta[models.MetaImgShapeX] = s.width
	meta[models.MetaImgShapeY] = s.height
	meta[models.MetaFrames] = s.frames
}
