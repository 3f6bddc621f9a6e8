package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataRow(t *testing.T) {
	m := &Metadata{
		Title:       "Fire Brigade Gazette",
		Date:        "1987/03/12",
		Volume:      "12",
		Issue:       "3",
		Description: "Quarterly gazette of the volunteer brigade.",
	}

	row := m.Row("FF2")

	assert.Len(t, row, 8)
	assert.Equal(t, "FF2", row[0])
	assert.Equal(t, "Fire Brigade Gazette", row[1])
	assert.Equal(t, "1987/03/12", row[2])
	assert.Equal(t, "12", row[3])
	assert.Equal(t, "3", row[4])
	assert.Equal(t, "Quarterly gazette of the volunteer brigade.", row[5])
	assert.Equal(t, "", row[6])
	assert.Equal(t, RowSourceLabel, row[7])
}

func TestMetadataRowBlankFields(t *testing.T) {
	m := &Metadata{Title: "scan_0042"}

	row := m.Row("FF1")

	assert.Len(t, row, 8)
	assert.Equal(t, "scan_0042", row[1])
	for _, i := range []int{2, 3, 4, 5} {
		assert.Equal(t, "", row[i], "column %d should be blank", i)
	}
}

func TestMetadataIsEmpty(t *testing.T) {
	assert.True(t, (&Metadata{}).IsEmpty())
	assert.True(t, (&Metadata{Confidence: 88.5}).IsEmpty())
	assert.False(t, (&Metadata{Date: "1999"}).IsEmpty())
}
