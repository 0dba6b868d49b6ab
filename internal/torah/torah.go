package torah

import "fmt"

// Book is one of the five books of the Torah.
type Book string

const (
	Genesis     Book = "Genesis"
	Exodus      Book = "Exodus"
	Leviticus   Book = "Leviticus"
	Numbers     Book = "Numbers"
	Deuteronomy Book = "Deuteronomy"
)

// Books lists the Torah books in canonical order.
var Books = []Book{Genesis, Exodus, Leviticus, Numbers, Deuteronomy}

// Order returns the 1-based position of the book, or 0 for an unknown name.
func (b Book) Order() int {
	for i, known := range Books {
		if b == known {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether b names a Torah book.
func (b Book) Valid() bool {
	return b.Order() > 0
}

// AliyotPerReading is the number of weekday aliyot in a full reading.
const AliyotPerReading = 7

// VerseRange is a parsed "Book C:V-C:V" reference.
type VerseRange struct {
	Book         Book   `json:"book"`
	StartChapter int    `json:"start_chapter"`
	StartVerse   int    `json:"start_verse"`
	EndChapter   int    `json:"end_chapter"`
	EndVerse     int    `json:"end_verse"`
	Raw          string `json:"raw"`
}

// Start returns the first verse of the range.
func (v VerseRange) Start() Position {
	return Position{Chapter: v.StartChapter, Verse: v.StartVerse}
}

// End returns the last verse of the range.
func (v VerseRange) End() Position {
	return Position{Chapter: v.EndChapter, Verse: v.EndVerse}
}

// MultiChapter reports whether the range crosses a chapter boundary.
func (v VerseRange) MultiChapter() bool {
	return v.StartChapter != v.EndChapter
}

func (v VerseRange) String() string {
	if v.Raw != "" {
		return v.Raw
	}
	return fmt.Sprintf("%s %d:%d-%d:%d", v.Book, v.StartChapter, v.StartVerse, v.EndChapter, v.EndVerse)
}

// Position is a chapter:verse location within a book.
type Position struct {
	Chapter int
	Verse   int
}

// Compare orders positions by chapter, then verse.
func (p Position) Compare(o Position) int {
	switch {
	case p.Chapter < o.Chapter:
		return -1
	case p.Chapter > o.Chapter:
		return 1
	case p.Verse < o.Verse:
		return -1
	case p.Verse > o.Verse:
		return 1
	}
	return 0
}

// Aliyah is one section of a weekly reading as stored in the dataset.
type Aliyah struct {
	Number     int        `json:"number"`
	Verses     string     `json:"verses"`
	Parsed     VerseRange `json:"parsed"`
	WordCount  int        `json:"word_count"`
	VerseCount int        `json:"verse_count"`
}

// Reading is one weekly parsha.
type Reading struct {
	Title        string   `json:"title"`
	HebrewName   string   `json:"hebrew_name"`
	Date         string   `json:"date,omitempty"`
	TorahPortion string   `json:"torah_portion,omitempty"`
	Book         Book     `json:"book"`
	BookOrder    int      `json:"book_order"`
	StartChapter int      `json:"start_chapter"`
	Aliyot       []Aliyah `json:"aliyot"`
}

// Complete reports whether the reading carries all seven aliyot.
func (r Reading) Complete() bool {
	return len(r.Aliyot) == AliyotPerReading
}
