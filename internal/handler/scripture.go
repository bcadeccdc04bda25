package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/biblia/internal/lib/utils"
	"github.com/deppfellow/biblia/internal/model"
	"github.com/deppfellow/biblia/internal/server"
	"github.com/deppfellow/biblia/internal/service"
	"github.com/deppfellow/biblia/internal/validation"
)

// Request types. Optional query ids use 0 for "absent"; ids start at 1.

// EmptyRequest is used by endpoints without parameters.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error { return nil }

type ListBooksRequest struct {
	TestamentID int `query:"testamentId" validate:"omitempty,min=1"`
}

func (r *ListBooksRequest) Validate() error { return validation.Struct(r) }

type GetBookRequest struct {
	BookID int `param:"bookId" validate:"required,min=1"`
}

func (r *GetBookRequest) Validate() error { return validation.Struct(r) }

type ChapterRequest struct {
	BookID  int `param:"bookId" validate:"required,min=1"`
	Chapter int `param:"chapter" validate:"required,min=1"`
}

func (r *ChapterRequest) Validate() error { return validation.Struct(r) }

type ListSummariesRequest struct {
	TranslationID int `param:"translationId" validate:"required,min=1"`
	TestamentID   int `query:"testamentId" validate:"omitempty,min=1"`
	BookID        int `query:"bookId" validate:"omitempty,min=1"`
}

func (r *ListSummariesRequest) Validate() error { return validation.Struct(r) }

type TranslationChapterRequest struct {
	TranslationID int `param:"translationId" validate:"required,min=1"`
	BookID        int `param:"bookId" validate:"required,min=1"`
	Chapter       int `param:"chapter" validate:"required,min=1"`
}

func (r *TranslationChapterRequest) Validate() error { return validation.Struct(r) }

// GetVersesRequest caps Numbers at 200 verses per call.
type GetVersesRequest struct {
	TranslationID int   `param:"translationId" validate:"required,min=1"`
	BookID        int   `param:"bookId" validate:"required,min=1"`
	Chapter       int   `param:"chapter" validate:"required,min=1"`
	Numbers       []int `query:"numbers" validate:"max=200,unique,dive,min=1"`
}

func (r *GetVersesRequest) Validate() error { return validation.Struct(r) }

type GetVerseRequest struct {
	TranslationID int `param:"translationId" validate:"required,min=1"`
	BookID        int `param:"bookId" validate:"required,min=1"`
	Chapter       int `param:"chapter" validate:"required,min=1"`
	Number        int `param:"number" validate:"required,min=1"`
}

func (r *GetVerseRequest) Validate() error { return validation.Struct(r) }

type PromiseBoxRequest struct {
	PromiseBoxID int `param:"promiseBoxId" validate:"required,min=1"`
}

func (r *PromiseBoxRequest) Validate() error { return validation.Struct(r) }

type DrawPromiseRequest struct {
	TranslationID int `param:"translationId" validate:"required,min=1"`
}

func (r *DrawPromiseRequest) Validate() error { return validation.Struct(r) }

// Response types for the scalar endpoints.

type ChapterCountResponse struct {
	BookID       int `json:"bookId"`
	ChapterCount int `json:"chapterCount"`
}

type VerseCountResponse struct {
	BookID     int `json:"bookId"`
	Chapter    int `json:"chapter"`
	VerseCount int `json:"verseCount"`
}

type PromiseBoxCountResponse struct {
	MaxID int `json:"maxId"`
}

// ScriptureHandler serves the read API over the corpus.
type ScriptureHandler struct {
	Handler
	scripture *service.ScriptureService
}

func NewScriptureHandler(s *server.Server, scripture *service.ScriptureService) *ScriptureHandler {
	return &ScriptureHandler{
		Handler:   NewHandler(s),
		scripture: scripture,
	}
}

func (h *ScriptureHandler) ListTranslations(c echo.Context, _ *EmptyRequest) ([]model.Translation, error) {
	return h.scripture.ListTranslations(c.Request().Context())
}

func (h *ScriptureHandler) ListBooks(c echo.Context, req *ListBooksRequest) ([]model.Book, error) {
	return h.scripture.ListBooks(c.Request().Context(), utils.OptionalID(req.TestamentID))
}

func (h *ScriptureHandler) GetBook(c echo.Context, req *GetBookRequest) (*model.Book, error) {
	return h.scripture.GetBook(c.Request().Context(), req.BookID)
}

func (h *ScriptureHandler) ChapterCount(c echo.Context, req *GetBookRequest) (*ChapterCountResponse, error) {
	count, err := h.scripture.ChapterCount(c.Request().Context(), req.BookID)
	if err != nil {
		return nil, err
	}
	return &ChapterCountResponse{BookID: req.BookID, ChapterCount: count}, nil
}

func (h *ScriptureHandler) VerseCountInChapter(c echo.Context, req *ChapterRequest) (*VerseCountResponse, error) {
	count, err := h.scripture.VerseCountInChapter(c.Request().Context(), req.BookID, req.Chapter)
	if err != nil {
		return nil, err
	}
	return &VerseCountResponse{BookID: req.BookID, Chapter: req.Chapter, VerseCount: count}, nil
}

func (h *ScriptureHandler) ListBookSummaries(c echo.Context, req *ListSummariesRequest) ([]model.BookSummary, error) {
	return h.scripture.ListBookSummaries(c.Request().Context(), req.TranslationID, utils.OptionalID(req.TestamentID), utils.OptionalID(req.BookID))
}

func (h *ScriptureHandler) VerseCountAggregate(c echo.Context, req *TranslationChapterRequest) (model.ChapterVerseCount, error) {
	return h.scripture.VerseCountAggregate(c.Request().Context(), req.TranslationID, req.BookID, req.Chapter)
}

// GetVerses returns the requested verses of a chapter; no numbers yields
// an empty list.
func (h *ScriptureHandler) GetVerses(c echo.Context, req *GetVersesRequest) ([]model.Verse, error) {
	return h.scripture.GetVerses(c.Request().Context(), req.TranslationID, req.BookID, req.Chapter, req.Numbers)
}

func (h *ScriptureHandler) GetVerse(c echo.Context, req *GetVerseRequest) (*model.Verse, error) {
	return h.scripture.GetVerse(c.Request().Context(), req.TranslationID, req.BookID, req.Chapter, req.Number)
}

func (h *ScriptureHandler) PromiseBoxCount(c echo.Context, _ *EmptyRequest) (*PromiseBoxCountResponse, error) {
	maxID, err := h.scripture.PromiseBoxMaxID(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return &PromiseBoxCountResponse{MaxID: maxID}, nil
}

func (h *ScriptureHandler) PromiseBoxEntries(c echo.Context, req *PromiseBoxRequest) ([]model.PromiseBoxEntry, error) {
	return h.scripture.PromiseBoxEntries(c.Request().Context(), req.PromiseBoxID)
}

func (h *ScriptureHandler) DrawPromise(c echo.Context, req *DrawPromiseRequest) (*service.PromiseDraw, error) {
	return h.scripture.DrawPromise(c.Request().Context(), req.TranslationID)
}
