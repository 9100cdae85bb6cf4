package scripture

import "strings"

// abbreviations maps the abbreviations used on readings pages, and the
// older short forms used by the seeder records, to canonical book names.
var abbreviations = map[string]string{
	// Pentateuch and historical books
	"Gen": "Genesis", "Gn": "Genesis",
	"Ex": "Exodus", "Exod": "Exodus",
	"Lev": "Leviticus", "Lv": "Leviticus",
	"Num": "Numbers", "Nm": "Numbers",
	"Deut": "Deuteronomy", "Dt": "Deuteronomy",
	"Josh": "Joshua", "Jos": "Joshua",
	"Judg": "Judges", "Jgs": "Judges",
	"Ru": "Ruth",
	"1Sam": "1 Samuel", "1Sm": "1 Samuel",
	"2Sam": "2 Samuel", "2Sm": "2 Samuel",
	"1Kgs": "1 Kings", "2Kgs": "2 Kings",
	"1Chr": "1 Chronicles", "2Chr": "2 Chronicles",
	"Ezr": "Ezra",
	"Neh": "Nehemiah",
	"Tob": "Tobit", "Tb": "Tobit",
	"Jdt": "Judith",
	"Esth": "Esther", "Est": "Esther",
	"1Macc": "1 Maccabees", "1Mc": "1 Maccabees",
	"2Macc": "2 Maccabees", "2Mc": "2 Maccabees",

	// Wisdom books
	"Jb":  "Job",
	"Ps":  "Psalms", "Pss": "Psalms", "Psalm": "Psalms",
	"Prov": "Proverbs", "Prv": "Proverbs",
	"Eccl": "Ecclesiastes", "Qo": "Ecclesiastes",
	"Song": "Song of Songs", "Sg": "Song of Songs",
	"Wis": "Wisdom",
	"Sir": "Sirach",

	// Prophets
	"Is": "Isaiah", "Isa": "Isaiah",
	"Jer": "Jeremiah",
	"Lam": "Lamentations",
	"Bar": "Baruch",
	"Ezek": "Ezekiel", "Ez": "Ezekiel",
	"Dan": "Daniel", "Dn": "Daniel",
	"Hos": "Hosea",
	"Jl":  "Joel",
	"Am":  "Amos",
	"Obad": "Obadiah", "Ob": "Obadiah",
	"Jon": "Jonah",
	"Mic": "Micah", "Mi": "Micah",
	"Nah": "Nahum", "Na": "Nahum",
	"Hab": "Habakkuk", "Hb": "Habakkuk",
	"Zeph": "Zephaniah", "Zep": "Zephaniah",
	"Hag": "Haggai", "Hg": "Haggai",
	"Zech": "Zechariah", "Zec": "Zechariah",
	"Mal": "Malachi",

	// New Testament
	"Mt": "Matthew", "Matt": "Matthew",
	"Mk": "Mark",
	"Lk": "Luke",
	"Jn": "John",
	"Rom": "Romans",
	"1Cor": "1 Corinthians", "2Cor": "2 Corinthians",
	"Gal": "Galatians",
	"Eph": "Ephesians",
	"Phil": "Philippians",
	"Col": "Colossians",
	"1Thess": "1 Thessalonians", "1Thes": "1 Thessalonians",
	"2Thess": "2 Thessalonians", "2Thes": "2 Thessalonians",
	"1Tim": "1 Timothy", "1Tm": "1 Timothy",
	"2Tim": "2 Timothy", "2Tm": "2 Timothy",
	"Ti":   "Titus",
	"Phlm": "Philemon",
	"Heb":  "Hebrews",
	"Jas":  "James",
	"1Pet": "1 Peter", "1Pt": "1 Peter",
	"2Pet": "2 Peter", "2Pt": "2 Peter",
	"1Jn": "1 John", "2Jn": "2 John", "3Jn": "3 John",
	"Rev": "Revelation", "Rv": "Revelation",
}

// canonicalBooks is the 73-book Catholic canon in canonical order.
var canonicalBooks = []string{
	"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
	"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel", "1 Kings", "2 Kings",
	"1 Chronicles", "2 Chronicles", "Ezra", "Nehemiah", "Tobit", "Judith",
	"Esther", "1 Maccabees", "2 Maccabees",
	"Job", "Psalms", "Proverbs", "Ecclesiastes", "Song of Songs", "Wisdom", "Sirach",
	"Isaiah", "Jeremiah", "Lamentations", "Baruch", "Ezekiel", "Daniel",
	"Hosea", "Joel", "Amos", "Obadiah", "Jonah", "Micah", "Nahum", "Habakkuk",
	"Zephaniah", "Haggai", "Zechariah", "Malachi",
	"Matthew", "Mark", "Luke", "John", "Acts", "Romans",
	"1 Corinthians", "2 Corinthians", "Galatians", "Ephesians", "Philippians",
	"Colossians", "1 Thessalonians", "2 Thessalonians", "1 Timothy", "2 Timothy",
	"Titus", "Philemon", "Hebrews", "James", "1 Peter", "2 Peter",
	"1 John", "2 John", "3 John", "Jude", "Revelation",
}

// deuterocanonical books are usually missing from public-domain text APIs.
var deuterocanonical = map[string]bool{
	"Tobit": true, "Judith": true, "1 Maccabees": true, "2 Maccabees": true,
	"Wisdom": true, "Sirach": true, "Baruch": true,
}

// apiBookNames maps canonical names to the vocabulary of the text API.
var apiBookNames = map[string]string{
	"Song of Songs": "Song of Solomon",
	"Sirach":        "Ecclesiasticus",
	"Wisdom":        "Wisdom of Solomon",
	"Psalms":        "Psalms",
}

// bookIndex is keyed by bookKey of every abbreviation and canonical name.
var bookIndex = func() map[string]string {
	idx := make(map[string]string, len(abbreviations)+len(canonicalBooks))
	for _, name := range canonicalBooks {
		idx[bookKey(name)] = name
	}
	for abbrev, name := range abbreviations {
		idx[bookKey(abbrev)] = name
	}
	return idx
}()

func bookKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), "")
}

// CanonicalBook resolves an abbreviation or name to its canonical book name.
// Unknown tokens are returned unchanged with ok == false.
func CanonicalBook(token string) (name string, ok bool) {
	token = strings.TrimSpace(token)
	if name, ok := bookIndex[bookKey(token)]; ok {
		return name, true
	}
	return token, false
}

// IsKnownBook reports whether token names a book of the canon.
func IsKnownBook(token string) bool {
	_, ok := CanonicalBook(token)
	return ok
}

// IsDeuterocanonical reports whether the canonical book is deuterocanonical.
func IsDeuterocanonical(book string) bool {
	return deuterocanonical[book]
}

// APIBookName returns the text API's name for a canonical book.
func APIBookName(book string) string {
	if name, ok := apiBookNames[book]; ok {
		return name
	}
	return book
}

// Books returns the canonical book list in order.
func Books() []string {
	out := make([]string, len(canonicalBooks))
	copy(out, canonicalBooks)
	return out
}
