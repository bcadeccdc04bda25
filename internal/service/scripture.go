package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/deppfellow/biblia/internal/errs"
	"github.com/deppfellow/biblia/internal/middleware"
	"github.com/deppfellow/biblia/internal/model"
	"github.com/deppfellow/biblia/internal/repository"
)

// ScriptureStore is the read surface of the scripture repository.
type ScriptureStore interface {
	ChapterCount(ctx context.Context, bookID int) (int, error)
	VerseCountInChapter(ctx context.Context, bookID, chapter int) (int, error)
	ListBooks(ctx context.Context, testamentID *int) ([]model.Book, error)
	ListBookSummaries(ctx context.Context, translationID int, testamentID, bookID *int) ([]model.BookSummary, error)
	ListTranslations(ctx context.Context) ([]model.Translation, error)
	GetVerse(ctx context.Context, translationID, bookID, chapter, number int) (*model.Verse, error)
	GetVerses(ctx context.Context, translationID, bookID, chapter int, numbers []int) ([]model.Verse, error)
	VerseCountAggregate(ctx context.Context, translationID, bookID, chapter int) (model.ChapterVerseCount, error)
	PromiseBoxMaxID(ctx context.Context) (int, error)
	PromiseBoxEntries(ctx context.Context, promiseBoxID int) ([]model.PromiseBoxEntry, error)
	GetBook(ctx context.Context, bookID int) (*model.Book, error)
}

var _ ScriptureStore = (*repository.ScriptureRepository)(nil)

// drawAttempts bounds how many ids a draw tries when the promise box has
// gaps in its id sequence.
const drawAttempts = 5

// PromiseDraw is one random pick from the promise box with its verses
// resolved in the requested translation.
type PromiseDraw struct {
	PromiseBoxID int                     `json:"promiseBoxId"`
	Entries      []model.PromiseBoxEntry `json:"entries"`
	Verses       []model.Verse           `json:"verses"`
}

type ScriptureService struct {
	logger *zerolog.Logger
	store  ScriptureStore
	intN   func(n int) int
}

func NewScriptureService(logger *zerolog.Logger, store ScriptureStore) *ScriptureService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ScriptureService{
		logger: logger,
		store:  store,
		intN:   rand.IntN,
	}
}

func (s *ScriptureService) ListTranslations(ctx context.Context) ([]model.Translation, error) {
	return s.store.ListTranslations(ctx)
}

func (s *ScriptureService) ListBooks(ctx context.Context, testamentID *int) ([]model.Book, error) {
	return s.store.ListBooks(ctx, testamentID)
}

// GetBook returns the book or a 404 when it does not exist.
func (s *ScriptureService) GetBook(ctx context.Context, bookID int) (*model.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errs.NewNotFoundError(fmt.Sprintf("Book %d not found", bookID), true, nil)
	}
	return book, nil
}

func (s *ScriptureService) ChapterCount(ctx context.Context, bookID int) (int, error) {
	return s.store.ChapterCount(ctx, bookID)
}

func (s *ScriptureService) VerseCountInChapter(ctx context.Context, bookID, chapter int) (int, error) {
	return s.store.VerseCountInChapter(ctx, bookID, chapter)
}

func (s *ScriptureService) ListBookSummaries(ctx context.Context, translationID int, testamentID, bookID *int) ([]model.BookSummary, error) {
	return s.store.ListBookSummaries(ctx, translationID, testamentID, bookID)
}

func (s *ScriptureService) VerseCountAggregate(ctx context.Context, translationID, bookID, chapter int) (model.ChapterVerseCount, error) {
	return s.store.VerseCountAggregate(ctx, translationID, bookID, chapter)
}

// GetVerse returns one verse, or a 404 when the reference does not exist.
func (s *ScriptureService) GetVerse(ctx context.Context, translationID, bookID, chapter, number int) (*model.Verse, error) {
	verse, err := s.store.GetVerse(ctx, translationID, bookID, chapter, number)
	if errors.Is(err, repository.ErrVerseNotFound) {
		code := "VERSE_NOT_FOUND"
		return nil, errs.NewNotFoundError(
			fmt.Sprintf("Verse %d:%d not found in book %d", chapter, number, bookID), true, &code)
	}
	return verse, err
}

func (s *ScriptureService) GetVerses(ctx context.Context, translationID, bookID, chapter int, numbers []int) ([]model.Verse, error) {
	return s.store.GetVerses(ctx, translationID, bookID, chapter, numbers)
}

func (s *ScriptureService) PromiseBoxMaxID(ctx context.Context) (int, error) {
	return s.store.PromiseBoxMaxID(ctx)
}

// PromiseBoxEntries returns the entries of one promise, or a 404 when the
// id holds none.
func (s *ScriptureService) PromiseBoxEntries(ctx context.Context, promiseBoxID int) ([]model.PromiseBoxEntry, error) {
	entries, err := s.store.PromiseBoxEntries(ctx, promiseBoxID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errs.NewNotFoundError(fmt.Sprintf("Promise %d not found", promiseBoxID), true, nil)
	}
	return entries, nil
}

// DrawPromise picks a uniformly random promise id in [1, max id] and
// resolves the verses of its first entry's chapter in translationID.
//
// Every entry sharing the first entry's book and chapter contributes its
// verse number. Ids without entries, or whose verses are missing in the
// translation, are redrawn a few times before the draw gives up with a 404.
func (s *ScriptureService) DrawPromise(ctx context.Context, translationID int) (*PromiseDraw, error) {
	logger := middleware.LoggerFromContextOr(ctx, s.logger)

	maxID, err := s.store.PromiseBoxMaxID(ctx)
	if err != nil {
		return nil, err
	}
	if maxID < 1 {
		return nil, errs.NewNotFoundError("The promise box is empty", true, nil)
	}

	for attempt := 1; attempt <= drawAttempts; attempt++ {
		id := s.intN(maxID) + 1

		entries, err := s.store.PromiseBoxEntries(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			logger.Debug().Int("promise_box_id", id).Int("attempt", attempt).Msg("promise id has no entries, redrawing")
			continue
		}

		first := entries[0]
		var numbers []int
		for _, e := range entries {
			if e.BookID == first.BookID && e.ChapterID == first.ChapterID {
				numbers = append(numbers, e.VerseNumber)
			}
		}

		verses, err := s.store.GetVerses(ctx, translationID, first.BookID, first.ChapterID, numbers)
		if err != nil {
			return nil, err
		}
		if len(verses) == 0 {
			logger.Debug().
				Int("promise_box_id", id).
				Int("translation_id", translationID).
				Int("attempt", attempt).
				Msg("promise verses missing in translation, redrawing")
			continue
		}

		logger.Info().
			Int("promise_box_id", id).
			Int("translation_id", translationID).
			Int("verses", len(verses)).
			Msg("promise drawn")

		return &PromiseDraw{
			PromiseBoxID: id,
			Entries:      entries,
			Verses:       verses,
		}, nil
	}

	logger.Warn().
		Int("max_id", maxID).
		Int("translation_id", translationID).
		Msg("promise draw found nothing to show")
	return nil, errs.NewNotFoundError("No promise could be drawn", true, nil)
}
