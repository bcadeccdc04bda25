package repository

import "errors"

// One error kind per operation. Failures are returned wrapped as
// "<kind>: <cause>", so errors.Is matches both the kind and the cause.
var (
	ErrChapterCount        = errors.New("chapter count")
	ErrVerseCount          = errors.New("verse count in chapter")
	ErrListBooks           = errors.New("list books")
	ErrListSummaries       = errors.New("list book summaries")
	ErrListTranslations    = errors.New("list translations")
	ErrGetVerse            = errors.New("get verse")
	ErrVerseCountAggregate = errors.New("verse count aggregate")
	ErrPromiseBoxCount     = errors.New("promise box max id")
	ErrPromiseBoxEntries   = errors.New("promise box entries")
	ErrGetVerses           = errors.New("get verses")
	ErrGetBook             = errors.New("get book")
)

var (
	// ErrVerseNotFound is the cause of ErrGetVerse when no verse matches.
	ErrVerseNotFound = errors.New("verse not found")

	// ErrBookIntegrity is returned when verses exist but the lookup of their
	// book does not yield exactly one row.
	ErrBookIntegrity = errors.New("book lookup did not return exactly one row")
)
