package dicommeta

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// ErrNoPixelData is returned when a dataset carries no decodable frame.
var ErrNoPixelData = errors.New("no pixel data")

// Plane is one decoded frame: Samples values per pixel in row-major order,
// as stored in the file. Signed data (PixelRepresentation 1) is
// sign-extended from BitsStored.
type Plane struct {
	Rows, Cols, Samples int
	Values              []int64
}

// Gray returns the value of pixel (x, y) averaged over its samples.
func (p *Plane) Gray(x, y int) float64 {
	i := (y*p.Cols + x) * p.Samples
	var sum int64
	for _, v := range p.Values[i : i+p.Samples] {
		sum += v
	}
	return float64(sum) / float64(p.Samples)
}

// Parse parses a Part 10 file held in memory. Pixel data is read only when
// withPixels is set.
func Parse(data []byte, withPixels bool) (dicom.Dataset, error) {
	var opts []dicom.ParseOption
	if !withPixels {
		opts = append(opts, dicom.SkipPixelData())
	}
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil, opts...)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("parse dicom: %w", err)
	}
	return ds, nil
}

// Frames decodes the frames of a dataset parsed with pixel data. It stops
// at the first frame when firstOnly is set.
func Frames(ds dicom.Dataset, firstOnly bool) ([]*Plane, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil || el.Value == nil || el.Value.ValueType() != dicom.PixelData {
		return nil, ErrNoPixelData
	}
	info := dicom.MustGetPixelDataInfo(el.Value)

	signed := firstInt(ds, tag.PixelRepresentation) == 1
	bits := firstInt(ds, tag.BitsStored)

	var planes []*Plane
	for _, fr := range info.Frames {
		var (
			p   *Plane
			err error
		)
		if fr.Encapsulated {
			p, err = encapsulatedPlane(fr)
		} else {
			p = nativePlane(&fr.NativeData, signed, bits)
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", len(planes), err)
		}
		planes = append(planes, p)
		if firstOnly {
			break
		}
	}
	if len(planes) == 0 {
		return nil, ErrNoPixelData
	}
	return planes, nil
}

func nativePlane(n *frame.NativeFrame, signed bool, bits int) *Plane {
	samples := 1
	if len(n.Data) > 0 && len(n.Data[0]) > 0 {
		samples = len(n.Data[0])
	}
	p := &Plane{Rows: n.Rows, Cols: n.Cols, Samples: samples, Values: make([]int64, 0, len(n.Data)*samples)}
	for _, px := range n.Data {
		for s := 0; s < samples; s++ {
			var v int64
			if s < len(px) {
				v = int64(px[s])
			}
			if signed {
				v = signExtend(v, bits, n.BitsPerSample)
			}
			p.Values = append(p.Values, v)
		}
	}
	return p
}

// signExtend interprets the low bits of v as a two's complement number.
// bits falls back to allocated when BitsStored is missing or out of range.
func signExtend(v int64, bits, allocated int) int64 {
	if bits <= 0 || bits > allocated {
		bits = allocated
	}
	if bits <= 0 || bits >= 64 {
		return v
	}
	mask := int64(1)<<bits - 1
	v &= mask
	if v&(int64(1)<<(bits-1)) != 0 {
		v -= int64(1) << bits
	}
	return v
}

// encapsulatedPlane decodes a compressed frame through the image codecs
// registered with the dicom package and keeps its grey level.
func encapsulatedPlane(fr *frame.Frame) (*Plane, error) {
	img, err := fr.GetImage()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	p := &Plane{Rows: b.Dy(), Cols: b.Dx(), Samples: 1, Values: make([]int64, 0, b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.Values = append(p.Values, int64(color.Gray16Model.Convert(img.At(x, y)).(color.Gray16).Y))
		}
	}
	return p, nil
}

func firstInt(ds dicom.Dataset, t tag.Tag) int {
	el, err := ds.FindElementByTag(t)
	if err != nil || el.Value == nil || el.Value.ValueType() != dicom.Ints {
		return 0
	}
	v := dicom.MustGetInts(el.Value)
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// FirstFrame parses data and decodes its first frame.
func FirstFrame(data []byte) (*Plane, dicom.Dataset, error) {
	ds, err := Parse(data, true)
	if err != nil {
		return nil, ds, err
	}
	frames, err := Frames(ds, true)
	if err != nil {
		return nil, ds, err
	}
	return frames[0], ds, nil
}
