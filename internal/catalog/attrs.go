package catalog

import (
	"path"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/pixels/internal/models"
)

var dicomExtensions = map[string]struct{}{
	"dcm":   {},
	"dicom": {},
	"ima":   {},
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// FileType classifies a file by extension.
func FileType(ext string) string {
	if _, ok := dicomExtensions[ext]; ok {
		return models.FileTypeDicom
	}
	if ext == "" {
		return models.FileTypeUnknown
	}
	return ext
}

// PathTags splits a relative path into searchable tokens. Separators are
// path separators, dots, underscores, dashes and whitespace.
func PathTags(rel string) []string {
	tags := strings.FieldsFunc(rel, func(r rune) bool {
		switch r {
		case '/', '\\', '.', '_', '-':
			return true
		}
		return unicode.IsSpace(r)
	})
	if tags == nil {
		return []string{}
	}
	return tags
}
