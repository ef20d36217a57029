package models

// Extra keys added next to the DICOM JSON model attributes.
const (
	MetaHash       = "hash"
	MetaFileSize   = "file_size"
	MetaImgMin     = "img_min"
	MetaImgMax     = "img_max"
	MetaImgAvg     = "img_avg"
	MetaImgShapeX  = "img_shape_x"
	MetaImgShapeY  = "img_shape_y"
	MetaFrames     = "frames"
	MetaError      = "error"
	MetaPatientTag = "00100010"
)

// Attribute is one DICOM JSON model attribute:
// {"vr": "PN", "Value": [{"Alphabetic": "Doe^Jane"}]}.
type Attribute struct {
	VR           string `json:"vr"`
	Value        []any  `json:"Value,omitempty"`
	InlineBinary string `json:"InlineBinary,omitempty"`
}

// PersonName is the PN value form of the DICOM JSON model.
type PersonName struct {
	Alphabetic string `json:"Alphabetic,omitempty"`
}
