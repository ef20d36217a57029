package dicommeta

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/dmitrijs2005/pixels/internal/models"
)

// maxInlineBinary caps binary values copied into the JSON document.
const maxInlineBinary = 64 << 10

// tagKey formats a tag the way the DICOM JSON model keys attributes.
func tagKey(t tag.Tag) string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// encodeElements renders elements in the DICOM JSON model. Pixel data is
// never copied into the document.
func encodeElements(elems []*dicom.Element) map[string]any {
	out := make(map[string]any, len(elems))
	for _, e := range elems {
		if e == nil || e.Tag == tag.PixelData {
			continue
		}
		out[tagKey(e.Tag)] = encodeElement(e)
	}
	return out
}

func encodeElement(e *dicom.Element) models.Attribute {
	vr := e.RawValueRepresentation
	attr := models.Attribute{VR: vr}
	if e.Value == nil {
		return attr
	}

	switch e.Value.ValueType() {
	case dicom.Strings:
		attr.Value = encodeStrings(vr, dicom.MustGetStrings(e.Value))
	case dicom.Ints:
		for _, v := range dicom.MustGetInts(e.Value) {
			attr.Value = append(attr.Value, v)
		}
	case dicom.Floats:
		for _, v := range dicom.MustGetFloats(e.Value) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				// not representable in JSON
				attr.Value = append(attr.Value, strconv.FormatFloat(v, 'g', -1, 64))
				continue
			}
			attr.Value = append(attr.Value, v)
		}
	case dicom.Bytes:
		b := dicom.MustGetBytes(e.Value)
		if len(b) > 0 && len(b) <= maxInlineBinary {
			attr.InlineBinary = base64.StdEncoding.EncodeToString(b)
		}
	case dicom.Sequences:
		items, _ := e.Value.GetValue().([]*dicom.SequenceItemValue)
		for _, item := range items {
			children, _ := item.GetValue().([]*dicom.Element)
			attr.Value = append(attr.Value, encodeElements(children))
		}
	case dicom.SequenceItem:
		children, _ := e.Value.GetValue().([]*dicom.Element)
		attr.Value = append(attr.Value, encodeElements(children))
	}
	return attr
}

// encodeStrings maps string values to their JSON model form: person names
// become objects and IS/DS become numbers when they parse.
func encodeStrings(vr string, values []string) []any {
	var out []any
	for _, s := range values {
		s = strings.TrimRight(s, " \x00")
		switch vr {
		case "PN":
			out = append(out, models.PersonName{Alphabetic: s})
		case "IS":
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				out = append(out, n)
			} else {
				out = append(out, s)
			}
		case "DS":
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				out = append(out, f)
			} else {
				out = append(out, s)
			}
		default:
			out = append(out, s)
		}
	}
	if len(out) == 1 && out[0] == "" {
		return nil
	}
	return out
}
