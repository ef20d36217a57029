// Package dcmtest builds small DICOM Part 10 files in memory for tests.
// Files use the explicit VR little endian transfer syntax.
package dcmtest

import (
	"bytes"
	"encoding/binary"
)

const explicitVRLittleEndian = "1.2.840.10008.1.2.1"

// Builder accumulates dataset elements. Elements must be added in
// ascending tag order.
type Builder struct {
	body bytes.Buffer
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

func longForm(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UN", "UR", "UT":
		return true
	}
	return false
}

func writeElement(w *bytes.Buffer, group, elem uint16, vr string, value []byte) {
	_ = binary.Write(w, binary.LittleEndian, group)
	_ = binary.Write(w, binary.LittleEndian, elem)
	w.WriteString(vr)
	if longForm(vr) {
		w.Write([]byte{0, 0})
		_ = binary.Write(w, binary.LittleEndian, uint32(len(value)))
	} else {
		_ = binary.Write(w, binary.LittleEndian, uint16(len(value)))
	}
	w.Write(value)
}

func pad(vr, s string) []byte {
	b := []byte(s)
	if len(b)%2 == 1 {
		if vr == "UI" {
			b = append(b, 0)
		} else {
			b = append(b, ' ')
		}
	}
	return b
}

// Str adds a string valued element.
func (b *Builder) Str(group, elem uint16, vr, value string) *Builder {
	writeElement(&b.body, group, elem, vr, pad(vr, value))
	return b
}

// US adds an unsigned short element.
func (b *Builder) US(group, elem uint16, values ...uint16) *Builder {
	var v bytes.Buffer
	for _, x := range values {
		_ = binary.Write(&v, binary.LittleEndian, x)
	}
	writeElement(&b.body, group, elem, "US", v.Bytes())
	return b
}

// Raw adds an element with an arbitrary value.
func (b *Builder) Raw(group, elem uint16, vr string, value []byte) *Builder {
	writeElement(&b.body, group, elem, vr, value)
	return b
}

// Pixels16 adds native 16-bit pixel data.
func (b *Builder) Pixels16(values ...uint16) *Builder {
	var v bytes.Buffer
	for _, x := range values {
		_ = binary.Write(&v, binary.LittleEndian, x)
	}
	writeElement(&b.body, 0x7FE0, 0x0010, "OW", v.Bytes())
	return b
}

// Bytes returns the complete file: preamble, magic, file meta group and
// the dataset.
func (b *Builder) Bytes() []byte {
	var meta bytes.Buffer
	writeElement(&meta, 0x0002, 0x0010, "UI", pad("UI", explicitVRLittleEndian))

	var out bytes.Buffer
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	var groupLen [4]byte
	binary.LittleEndian.PutUint32(groupLen[:], uint32(meta.Len()))
	writeElement(&out, 0x0002, 0x0000, "UL", groupLen[:])
	out.Write(meta.Bytes())
	out.Write(b.body.Bytes())
	return out.Bytes()
}

// Image returns a single frame MONOCHROME2 16-bit file for patient name
// with the given pixels in row-major order.
func Image(rows, cols int, name string, pixels ...uint16) []byte {
	return image(rows, cols, name, 16, 0, pixels)
}

// SignedImage is Image with PixelRepresentation 1 and bitsStored
// significant bits. Values are written in two's complement truncated to
// bitsStored.
func SignedImage(rows, cols, bitsStored int, name string, pixels ...int16) []byte {
	mask := uint16(1)<<bitsStored - 1
	if bitsStored >= 16 {
		mask = 0xFFFF
	}
	raw := make([]uint16, len(pixels))
	for i, v := range pixels {
		raw[i] = uint16(v) & mask
	}
	return image(rows, cols, name, bitsStored, 1, raw)
}

func image(rows, cols int, name string, bitsStored int, representation uint16, pixels []uint16) []byte {
	return New().
		Str(0x0008, 0x0060, "CS", "MR").
		Str(0x0010, 0x0010, "PN", name).
		Str(0x0010, 0x0020, "LO", "ID7747").
		Str(0x0020, 0x0013, "IS", "5").
		US(0x0028, 0x0002, 1).
		Str(0x0028, 0x0004, "CS", "MONOCHROME2").
		US(0x0028, 0x0010, uint16(rows)).
		US(0x0028, 0x0011, uint16(cols)).
		US(0x0028, 0x0100, 16).
		US(0x0028, 0x0101, uint16(bitsStored)).
		US(0x0028, 0x0102, uint16(bitsStored-1)).
		US(0x0028, 0x0103, representation).
		Pixels16(pixels...).
		Bytes()
}
