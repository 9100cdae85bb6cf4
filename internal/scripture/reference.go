// Package scripture parses Bible citations into structured references and
// builds lookup keys for the scripture text API.
package scripture

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"daily-scripture/internal/model"
)

// maxVerse bounds range expansion; no chapter in the canon comes close.
const maxVerse = 200

// headPattern splits "<book> <chapter>:<verses>". The book may carry an
// ordinal prefix ("1 Kgs", "1Kgs") and span several words ("Song of Songs").
var headPattern = regexp.MustCompile(`^((?:[1-4]\s*)?[A-Za-z][A-Za-z.]*(?:\s+[A-Za-z][A-Za-z.]*)*?)\s*(\d+)\s*:\s*(.+)$`)

// alternativePattern cuts "... or Lk 10:38-42" style alternatives.
var alternativePattern = regexp.MustCompile(`(?i)\s+or\s+.*$`)

var dashReplacer = strings.NewReplacer("–", "-", "—", "-", "‑", "-", "‒", "-")

// verseList is the grammar for the part after the colon,
// e.g. "15, 24-28" or "1, 2-3ab, 3cd-4".
type verseList struct {
	Clauses []*verseClause `parser:"@@ ( \",\" @@ )*"`
}

type verseClause struct {
	Start int  `parser:"@Int Suffix?"`
	End   *int `parser:"( \"-\" @Int Suffix? )?"`
}

var verseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Suffix", Pattern: `[a-z]+`},
	{Name: "Punct", Pattern: `[,\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var verseParser = participle.MustBuild[verseList](
	participle.Lexer(verseLexer),
	participle.Elide("Whitespace"),
)

// Unparsed returns the sentinel for a citation that could not be parsed.
func Unparsed(text string) model.ParsedReference {
	return model.ParsedReference{
		Book:         text,
		Chapter:      0,
		Verses:       []int{},
		OriginalText: text,
	}
}

// Parse converts a citation such as "Heb 9:15, 24-28" into a ParsedReference.
// Lowercase sub-verse letters are dropped. Input that does not follow the
// citation grammar yields the Unparsed sentinel; Parse never fails.
func Parse(raw string) model.ParsedReference {
	text := strings.TrimSpace(raw)

	m := headPattern.FindStringSubmatch(dashReplacer.Replace(text))
	if m == nil {
		return Unparsed(text)
	}

	chapter, err := strconv.Atoi(m[2])
	if err != nil || chapter <= 0 {
		return Unparsed(text)
	}

	verses, ok := expandVerses(alternativePattern.ReplaceAllString(m[3], ""))
	if !ok {
		return Unparsed(text)
	}

	book, _ := CanonicalBook(m[1])
	ref := model.ParsedReference{
		Book:         book,
		Chapter:      chapter,
		Verses:       verses,
		OriginalText: text,
	}
	if !ref.Parsed() {
		return Unparsed(text)
	}
	return ref
}

// expandVerses turns a verse list into an ascending, deduplicated verse set.
// A reversed range, or one with an endpoint of zero or past maxVerse,
// contributes no verses.
func expandVerses(spec string) ([]int, bool) {
	parsed, err := verseParser.ParseString("", strings.TrimSpace(spec))
	if err != nil {
		return nil, false
	}

	var verses []int
	for _, c := range parsed.Clauses {
		end := c.Start
		if c.End != nil {
			end = *c.End
		}
		if c.Start <= 0 || end > maxVerse {
			continue
		}
		for v := c.Start; v <= end; v++ {
			verses = append(verses, v)
		}
	}

	slices.Sort(verses)
	return slices.Compact(verses), true
}

// UnresolvableReference is returned when a reference has no chapter or verses.
type UnresolvableReference struct {
	Reference model.ParsedReference
}

func (e *UnresolvableReference) Error() string {
	return fmt.Sprintf("unresolvable reference %q", e.Reference.OriginalText)
}

// LookupKey addresses a passage in the scripture text API.
type LookupKey struct {
	Book    string // API book name
	Passage string // "chapter:verse" or "chapter:first-last"
}

// String returns the key in "<Book> <Passage>" form.
func (k LookupKey) String() string {
	return k.Book + " " + k.Passage
}

// Path returns the key as a URL path segment, "<Book>+<Passage>".
func (k LookupKey) Path() string {
	return strings.Join(append(strings.Fields(k.Book), k.Passage), "+")
}

// ToLookupKey builds the text API key for a parsed reference.
//
// Multi-part verse lists are collapsed to "min-max": "5-6, 9" becomes "5-9".
// The API cannot express discontiguous ranges, so the widened span is what
// gets fetched.
func ToLookupKey(ref model.ParsedReference) (LookupKey, error) {
	if !ref.Parsed() {
		return LookupKey{}, &UnresolvableReference{Reference: ref}
	}

	first, last := slices.Min(ref.Verses), slices.Max(ref.Verses)
	passage := fmt.Sprintf("%d:%d", ref.Chapter, first)
	if len(ref.Verses) > 1 {
		passage = fmt.Sprintf("%d:%d-%d", ref.Chapter, first, last)
	}

	return LookupKey{
		Book:    APIBookName(ref.Book),
		Passage: passage,
	}, nil
}
