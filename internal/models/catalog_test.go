package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogEntry_Predicates(t *testing.T) {
	e := &CatalogEntry{FileType: FileTypeDicom}
	assert.True(t, e.IsDicom())
	assert.False(t, e.HasMeta())

	e.Meta = json.RawMessage("null")
	assert.False(t, e.HasMeta())

	e.Meta = json.RawMessage(`{"hash":"x"}`)
	assert.True(t, e.HasMeta())

	assert.False(t, (&CatalogEntry{FileType: "png"}).IsDicom())
}
