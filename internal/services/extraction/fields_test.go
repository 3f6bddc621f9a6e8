package extraction

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/folio/internal/common"
)

func TestFindDate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"slash date", "Published 12/3/87 in town", "12/3/87"},
		{"dash date", "minutes of 04-11-2024 meeting", "04-11-2024"},
		{"bare year", "Annual Report 1987", "1987"},
		{"first match wins", "1987 edition, reprinted 12/3/99", "1987"},
		{"no date", "no digits of interest", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindDate(tt.text))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected string
	}{
		{"day first slash", "12/3/1987", "1987/03/12"},
		{"day first dash", "12-3-1987", "1987/03/12"},
		{"two digit year", "12/03/87", "1987/03/12"},
		{"bare year passthrough", "1987", "1987"},
		{"unparseable verbatim", "99/99/99", "99/99/99"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDate(tt.fragment))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "Fire Brigade Gazette", NormalizeTitle("  Fire   Brigade\tGazette  "))
	assert.Equal(t, "Gazette", NormalizeTitle("*** Gazette ***"))
	assert.Equal(t, "", NormalizeTitle("  ...  "))
}

func TestTitleFromText(t *testing.T) {
	text := "\n\nab\nFire Brigade Gazette\nVolume 12\n"

	// Short lines are skipped but still count toward the line limit
	assert.Equal(t, "Fire Brigade Gazette", TitleFromText(text, 5, 10))

	// Line limit reached before a usable line
	assert.Equal(t, "", TitleFromText(text, 5, 1))

	assert.Equal(t, "", TitleFromText("", 5, 10))

	// Length minimum counts runes, not bytes: three CJK runes are nine
	// bytes but still too short for a five-character minimum
	assert.Equal(t, "", TitleFromText("日本語", 5, 10))
	assert.Equal(t, "日本語新聞", TitleFromText("日本語新聞", 5, 10))
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "one two", TruncateDescription("one\ntwo\n", 100))
	assert.Equal(t, "abcde", TruncateDescription("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", TruncateDescription("abcdefgh", 0))
}

func TestTruncateDescriptionRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the limit is dropped whole, never split
	text := strings.Repeat("a", 499) + "église"

	got := TruncateDescription(text, 500)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 499), got)

	// Cut exactly on a boundary keeps the full rune
	assert.Equal(t, "aé", TruncateDescription("aébc", 3))
	assert.True(t, utf8.ValidString(TruncateDescription("日本語新聞", 7)))
}

func TestHeuristicMetadata(t *testing.T) {
	cfg := common.ExtractionConfig{DescriptionLimit: 40, TitleMinLength: 5, TitleMaxLines: 10}
	text := "Fire Brigade Gazette\nIssued 12/3/87\nProceedings of the quarterly meeting held in the station hall."

	meta := HeuristicMetadata(text, cfg)

	assert.Equal(t, "Fire Brigade Gazette", meta.Title)
	assert.Equal(t, "1987/03/12", meta.Date)
	assert.Len(t, meta.Description, 40)
	assert.Equal(t, "", meta.Volume)
	assert.Equal(t, "", meta.Issue)
}

func TestFindDateOrVerbatim(t *testing.T) {
	assert.Equal(t, "2024/11/04", FindDateOrVerbatim("2024-11-04"))
	assert.Equal(t, "12/3/87", FindDateOrVerbatim("published on 12/3/87 roughly"))
	assert.Equal(t, "circa spring", FindDateOrVerbatim("circa spring"))
	assert.Equal(t, "", FindDateOrVerbatim("  "))
}

func TestDefaultMetadata(t *testing.T) {
	meta := DefaultMetadata("scan_0042.pdf")
	assert.Equal(t, "scan_0042", meta.Title)
	assert.Equal(t, "", meta.Date)

	meta = DefaultMetadata("noextension")
	assert.Equal(t, "noextension", meta.Title)
}
