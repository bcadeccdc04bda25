// Package model holds the read-only records of the scripture corpus.
//
// These are plain value types. They are filled by the repository layer
// and serialized as-is by the HTTP handlers.
package model

// Translation is a named rendering of the whole corpus.
type Translation struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Testament is the top-level grouping of books.
type Testament struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Book is a named unit within a testament. Position is its canonical order.
type Book struct {
	ID          int    `json:"id"`
	TestamentID int    `json:"testamentId"`
	Position    int    `json:"position"`
	Name        string `json:"name"`
}

// Verse is the smallest addressable unit of text, keyed by
// (translation, book, chapter, number).
//
// Book is attached by a secondary lookup on the owning book, it is not
// a stored join column.
type Verse struct {
	ID            int    `json:"id"`
	TranslationID int    `json:"translationId"`
	BookID        int    `json:"bookId"`
	Chapter       int    `json:"chapter"`
	Number        int    `json:"number"`
	Text          string `json:"text"`
	Book          *Book  `json:"book,omitempty"`
}

// PromiseBoxEntry points a promise-box id at one verse reference.
// It does not depend on a translation.
type PromiseBoxEntry struct {
	ID          int `json:"id"`
	BookID      int `json:"bookId"`
	ChapterID   int `json:"chapterId"`
	VerseNumber int `json:"verseNumber"`
}

// BookSummary is computed per (testament, book) for one translation.
// ChapterCount counts distinct chapters and VerseCount counts verse rows.
type BookSummary struct {
	TestamentID   int    `json:"testamentId"`
	TestamentName string `json:"testamentName"`
	BookID        int    `json:"bookId"`
	BookName      string `json:"bookName"`
	Position      int    `json:"position"`
	ChapterCount  int    `json:"chapterCount"`
	VerseCount    int    `json:"verseCount"`
}

// ChapterVerseCount is the verse count of a single chapter in a translation.
// The zero value means no verse matched.
type ChapterVerseCount struct {
	VerseCount    int `json:"verseCount"`
	TranslationID int `json:"translationId"`
	BookID        int `json:"bookId"`
	Chapter       int `json:"chapter"`
}
