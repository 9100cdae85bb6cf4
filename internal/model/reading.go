package model

import "time"

// SectionKind identifies one liturgical section of a day's readings.
type SectionKind string

const (
	FirstReading      SectionKind = "first_reading"
	SecondReading     SectionKind = "second_reading"
	ResponsorialPsalm SectionKind = "responsorial_psalm"
	Gospel            SectionKind = "gospel"
)

// Sections lists every section kind in liturgical order.
var Sections = []SectionKind{FirstReading, SecondReading, ResponsorialPsalm, Gospel}

// Title returns the human-readable section title.
func (k SectionKind) Title() string {
	switch k {
	case FirstReading:
		return "Reading 1"
	case SecondReading:
		return "Reading 2"
	case ResponsorialPsalm:
		return "Responsorial Psalm"
	case Gospel:
		return "Gospel"
	default:
		return string(k)
	}
}

// Citation is a single section's reference as harvested from a readings page.
type Citation struct {
	Section      SectionKind `json:"section"`
	RawReference string      `json:"raw_reference"`
	Response     string      `json:"response,omitempty"` // psalm refrain, psalm only
}

// ParsedReference is the structured form of a citation.
// Chapter == 0 means the citation could not be parsed.
type ParsedReference struct {
	Book         string `json:"book"`
	Chapter      int    `json:"chapter"`
	Verses       []int  `json:"verses"`
	OriginalText string `json:"original_text"`
}

// Parsed reports whether the reference was successfully parsed.
func (r ParsedReference) Parsed() bool {
	return r.Chapter > 0 && len(r.Verses) > 0
}

// SectionRecord is the stored form of one section.
type SectionRecord struct {
	Reference string  `json:"reference"`
	Text      *string `json:"text,omitempty"`
	Response  *string `json:"response,omitempty"`
}

// DailyReadingRecord is the per-date document written to the reading store.
type DailyReadingRecord struct {
	Date      string                        `json:"date"` // YYYY-MM-DD
	SourceURL string                        `json:"source_url"`
	FetchedAt time.Time                     `json:"fetched_at"`
	Strategy  string                        `json:"strategy,omitempty"`
	Sections  map[SectionKind]SectionRecord `json:"sections"`
}

// Section returns the record for a section kind, if present.
func (r DailyReadingRecord) Section(k SectionKind) (SectionRecord, bool) {
	s, ok := r.Sections[k]
	return s, ok
}

// StoredReading is a reading document as read back from the reading store.
type StoredReading struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title,omitempty"`
	Reference     string                 `json:"reference,omitempty"`
	Body          string                 `json:"body,omitempty"`
	USCCBLink     string                 `json:"usccb_link,omitempty"`
	Strategy      string                 `json:"extraction_strategy,omitempty"`
	Verses        map[SectionKind]string `json:"verses,omitempty"`
	Texts         map[SectionKind]string `json:"texts,omitempty"`
	PsalmResponse string                 `json:"responsorial_psalm_response,omitempty"`
	Videos        map[string]string      `json:"videos,omitempty"`
}

// Verse returns the stored reference for a section, or "".
func (r StoredReading) Verse(k SectionKind) string {
	return r.Verses[k]
}

// VideoFields are the document fields holding reflection video links.
var VideoFields = []string{"theWordTodayUrl", "cfcOnlyByGraceReflectionsUrl", "boSanchezFullTank"}
