package scraper

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"daily-scripture/internal/model"
	"daily-scripture/internal/scripture"
)

// Strategy names the extraction strategy that produced a set of citations.
type Strategy string

const (
	StructuralMatch    Strategy = "structural_match"
	PositionalFallback Strategy = "positional_fallback"
)

// Extraction is the result of extracting citations from one readings page.
type Extraction struct {
	Date      time.Time
	URL       string
	Strategy  Strategy
	Citations []model.Citation
}

// Citation returns the citation for a section, if one was found.
func (e Extraction) Citation(kind model.SectionKind) (model.Citation, bool) {
	for _, c := range e.Citations {
		if c.Section == kind {
			return c, true
		}
	}
	return model.Citation{}, false
}

// Missing lists the required sections the extraction did not find.
func (e Extraction) Missing() []model.SectionKind {
	var missing []model.SectionKind
	for _, kind := range []model.SectionKind{model.FirstReading, model.ResponsorialPsalm, model.Gospel} {
		if _, ok := e.Citation(kind); !ok {
			missing = append(missing, kind)
		}
	}
	return missing
}

// ExtractionFailed is returned when a page yields no citations at all.
type ExtractionFailed struct {
	Date time.Time
	URL  string
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("no scripture citations found for %s at %s", e.Date.Format("2006-01-02"), e.URL)
}

var (
	sectionTitles = []struct {
		kind    model.SectionKind
		pattern *regexp.Regexp
	}{
		{model.FirstReading, regexp.MustCompile(`(?i)^(?:reading\s*(?:1|i|one)|first\s+reading)$`)},
		{model.SecondReading, regexp.MustCompile(`(?i)^(?:reading\s*(?:2|ii|two)|second\s+reading)$`)},
		{model.ResponsorialPsalm, regexp.MustCompile(`(?i)^(?:responsorial\s+psalm|psalm)$`)},
		{model.Gospel, regexp.MustCompile(`(?i)^gospel$`)},
	}

	// Book token, chapter, then a comma-separated list of verses or ranges.
	// A range end may name another chapter ("27:30-28:7"). Every verse ends
	// on a word boundary so "3:16, 2025" stops before the year.
	referenceToken = regexp.MustCompile(`\b((?:[1-4]\s?)?[A-Z][a-z]+)\.?\s+(\d{1,3}):(\d{1,3}[a-z]*\b(?:\s*[-–—]\s*(?:\d{1,3}:)?\d{1,3}[a-z]*\b)?(?:\s*,\s*\d{1,3}[a-z]*\b(?:\s*[-–—]\s*(?:\d{1,3}:)?\d{1,3}[a-z]*\b)?)*)`)

	// A trailing ", 1" that may be the ordinal of the next book ("1 Cor").
	trailingOrdinal = regexp.MustCompile(`,\s*([1-4])$`)
	nextWord        = regexp.MustCompile(`^\s+([A-Z][a-z]+)`)

	lineBreak     = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>`)
	refrainPrefix = regexp.MustCompile(`^R\.\s*(?:\([^)]*\)\s*)?`)
)

const (
	headerSelector = "h1, h2, h3, h4, h5, .name, strong"
	blockSelector  = ".content-header, .innerblock, .b-verse"
)

// Extract pulls labeled scripture citations out of a readings page, using
// the default readings URL for the date in any failure it reports.
func Extract(markup string, date time.Time) (Extraction, error) {
	return ExtractPage(markup, date, ReadingsURL(DefaultBaseURL, date))
}

// ExtractPage pulls labeled scripture citations out of the markup fetched
// from url. Header-anchored matching is tried first; a positional scan of
// the visible text is used only when it finds nothing.
func ExtractPage(markup string, date time.Time, url string) (Extraction, error) {
	result := Extraction{Date: date, URL: url}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return result, &ExtractionFailed{Date: date, URL: url}
	}

	if citations := matchStructure(doc); len(citations) > 0 {
		result.Strategy = StructuralMatch
		result.Citations = citations
		return result, nil
	}

	if citations := matchPositions(doc); len(citations) > 0 {
		result.Strategy = PositionalFallback
		result.Citations = citations
		return result, nil
	}

	return result, &ExtractionFailed{Date: date, URL: url}
}

func matchStructure(doc *goquery.Document) []model.Citation {
	found := make(map[model.SectionKind]model.Citation)

	doc.Find(headerSelector).Each(func(_ int, header *goquery.Selection) {
		kind, ok := sectionForTitle(header.Text())
		if !ok {
			return
		}
		if _, seen := found[kind]; seen {
			return
		}

		ref := headerReference(header)
		if ref == "" {
			return
		}

		c := model.Citation{Section: kind, RawReference: ref}
		if kind == model.ResponsorialPsalm {
			c.Response = psalmRefrain(header)
		}
		found[kind] = c
	})

	return ordered(found)
}

func sectionForTitle(text string) (model.SectionKind, bool) {
	title := strings.TrimRight(cleanText(text), ":.")
	for _, t := range sectionTitles {
		if t.pattern.MatchString(title) {
			return t.kind, true
		}
	}
	return "", false
}

// headerReference reads the citation belonging to a section header: the
// .address of its enclosing block, or else the first sibling that starts
// with a reference.
func headerReference(header *goquery.Selection) string {
	if block := header.Closest(blockSelector); block.Length() > 0 {
		if addr := cleanText(block.Find(".address").First().Text()); addr != "" {
			return addr
		}
	}

	for s := header.Next(); s.Length() > 0; s = s.Next() {
		text := cleanText(s.Text())
		if text == "" {
			continue
		}
		if refs := findReferences(text); len(refs) > 0 && refs[0].start == 0 {
			return refs[0].raw
		}
		return ""
	}
	return ""
}

func psalmRefrain(header *goquery.Selection) string {
	block := header.Closest(".innerblock, .b-verse")
	if block.Length() == 0 {
		block = header.Parent()
	}

	body := block.Find(".content-body").First()
	if body.Length() == 0 {
		return ""
	}

	html, err := body.Html()
	if err != nil {
		return ""
	}
	lines, err := goquery.NewDocumentFromReader(strings.NewReader(lineBreak.ReplaceAllString(html, "\n")))
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(lines.Text(), "\n") {
		line = cleanText(line)
		if strings.HasPrefix(line, "R.") {
			return strings.TrimSpace(refrainPrefix.ReplaceAllString(line, ""))
		}
	}
	return ""
}

func matchPositions(doc *goquery.Document) []model.Citation {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Find("script, style, noscript").Remove()

	text := visibleText(body)

	type token struct {
		raw    string
		psalms bool
	}
	var tokens []token
	for _, ref := range findReferences(text) {
		book, ok := scripture.CanonicalBook(ref.book)
		if !ok {
			continue
		}
		tokens = append(tokens, token{raw: ref.raw, psalms: book == "Psalms"})
	}
	if len(tokens) == 0 {
		return nil
	}

	found := make(map[model.SectionKind]model.Citation)
	used := make([]bool, len(tokens))

	found[model.FirstReading] = model.Citation{Section: model.FirstReading, RawReference: tokens[0].raw}
	used[0] = true

	for i, tok := range tokens {
		if !used[i] && tok.psalms {
			found[model.ResponsorialPsalm] = model.Citation{Section: model.ResponsorialPsalm, RawReference: tok.raw}
			used[i] = true
			break
		}
	}

	if last := len(tokens) - 1; !used[last] {
		found[model.Gospel] = model.Citation{Section: model.Gospel, RawReference: tokens[last].raw}
	}

	return ordered(found)
}

type reference struct {
	raw   string
	book  string
	start int
}

// findReferences returns every reference token in text, in order. A verse
// list never keeps a trailing ordinal that starts the next reference, so
// "Is 62:1-5, 1 Cor 12:4-11" yields two tokens.
func findReferences(text string) []reference {
	var refs []reference
	for pos := 0; pos < len(text); {
		m := referenceToken.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		raw := text[start:end]

		if loc := trailingOrdinal.FindStringSubmatchIndex(raw); loc != nil {
			if w := nextWord.FindStringSubmatch(text[end:]); w != nil && scripture.IsKnownBook(raw[loc[2]:loc[3]]+" "+w[1]) {
				raw = raw[:loc[0]]
				end = start + loc[0]
			}
		}

		refs = append(refs, reference{raw: raw, book: text[pos+m[2] : pos+m[3]], start: start})
		pos = end
	}
	return refs
}

// visibleText joins the text nodes under sel with spaces so that adjacent
// elements do not run together.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			if goquery.NodeName(child) == "#text" {
				parts = append(parts, child.Text())
				return
			}
			walk(child)
		})
	}
	walk(sel)
	return cleanText(strings.Join(parts, " "))
}

func ordered(found map[model.SectionKind]model.Citation) []model.Citation {
	var citations []model.Citation
	for _, kind := range model.Sections {
		if c, ok := found[kind]; ok {
			citations = append(citations, c)
		}
	}
	return slices.Clip(citations)
}

// cleanText folds compatibility characters and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
