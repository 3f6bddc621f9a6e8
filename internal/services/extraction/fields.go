package extraction

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

// dateRegex matches numeric date fragments (12/3/87, 04-11-2024) and bare years.
var dateRegex = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4})\b`)

// yearOnlyRegex matches a bare four-digit year
var yearOnlyRegex = regexp.MustCompile(`^\d{4}$`)

// dayFirstLayouts are tried in order when normalizing a date fragment.
// Scanned gazettes in the source collections use day-first ordering.
var dayFirstLayouts = []string{
	"2/1/2006",
	"02/01/2006",
	"2-1-2006",
	"02-01-2006",
	"2/1/06",
	"02/01/06",
	"2-1-06",
	"02-01-06",
}

// FindDate returns the first date-looking fragment in text, or "".
func FindDate(text string) string {
	return dateRegex.FindString(text)
}

// NormalizeDate parses a date fragment with day-first preference and renders
// it as YYYY/MM/DD. A bare year is returned unchanged, as is any fragment
// that matches the date pattern but fails to parse.
func NormalizeDate(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	if yearOnlyRegex.MatchString(fragment) {
		return fragment
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, fragment); err == nil {
			return t.Format("2006/01/02")
		}
	}

	// Matched the pattern but couldn't be parsed; pass through verbatim
	return fragment
}

// NormalizeTitle collapses internal whitespace and strips surrounding
// punctuation from a title candidate.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	return strings.TrimFunc(title, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// TitleFromText returns the first non-empty line of text as a title
// candidate, normalized. Lines shorter than minLength runes are skipped; at
// most maxLines lines are considered.
func TitleFromText(text string, minLength, maxLines int) string {
	lines := strings.Split(text, "\n")
	scanned := 0
	for _, line := range lines {
		if scanned >= maxLines {
			break
		}
		candidate := NormalizeTitle(line)
		if candidate == "" {
			continue
		}
		scanned++
		if utf8.RuneCountInString(candidate) < minLength {
			continue
		}
		return candidate
	}
	return ""
}

// TruncateDescription reduces text to a single-spaced string of at most
// limit bytes, never splitting a multi-byte rune at the cut.
func TruncateDescription(text string, limit int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if limit <= 0 || len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// HeuristicMetadata derives metadata fields from raw document text without
// an LLM: first usable line as title, first date fragment normalized, and a
// truncated description. Volume and Issue stay blank.
func HeuristicMetadata(text string, cfg common.ExtractionConfig) *models.Metadata {
	return &models.Metadata{
		Title:       TitleFromText(text, cfg.TitleMinLength, cfg.TitleMaxLines),
		Date:        NormalizeDate(FindDate(text)),
		Description: TruncateDescription(text, cfg.DescriptionLimit),
	}
}

// Normalize applies post-processing to extractor output: date formatting,
// description truncation, and title whitespace cleanup.
func Normalize(meta *models.Metadata, cfg common.ExtractionConfig) *models.Metadata {
	if meta == nil {
		return nil
	}
	meta.Title = NormalizeTitle(meta.Title)
	meta.Date = NormalizeDate(FindDateOrVerbatim(meta.Date))
	meta.Description = TruncateDescription(meta.Description, cfg.DescriptionLimit)
	meta.Volume = strings.TrimSpace(meta.Volume)
	meta.Issue = strings.TrimSpace(meta.Issue)
	return meta
}

// FindDateOrVerbatim extracts a date fragment from a value that may already
// be a date or may contain one in surrounding prose. Values with no
// date-looking fragment are returned as-is so extractor output isn't lost.
func FindDateOrVerbatim(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if iso := parseISO(value); iso != "" {
		return iso
	}
	if fragment := FindDate(value); fragment != "" && fragment != value {
		return fragment
	}
	return value
}

// parseISO recognizes already-ISO dates (2024-11-04) and re-renders them
// with slashes for row consistency.
func parseISO(value string) string {
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006/01/02")
		}
	}
	return ""
}

// DefaultMetadata builds the fallback row used when every extractor fails:
// the filename without extension as title, all other fields blank.
func DefaultMetadata(filename string) *models.Metadata {
	title := filename
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		title = filename[:idx]
	}
	return &models.Metadata{Title: title}
}
