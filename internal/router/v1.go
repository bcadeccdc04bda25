package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/biblia/internal/handler"
)

func registerV1Routes(g *echo.Group, h *handler.Handlers) {
	s := h.Scripture

	g.GET("/translations", handler.Handle(s.Handler, s.ListTranslations, http.StatusOK, handler.NewRequest[handler.EmptyRequest]))

	books := g.Group("/books")
	books.GET("", handler.Handle(s.Handler, s.ListBooks, http.StatusOK, handler.NewRequest[handler.ListBooksRequest]))
	books.GET("/:bookId", handler.Handle(s.Handler, s.GetBook, http.StatusOK, handler.NewRequest[handler.GetBookRequest]))
	books.GET("/:bookId/chapters", handler.Handle(s.Handler, s.ChapterCount, http.StatusOK, handler.NewRequest[handler.GetBookRequest]))
	books.GET("/:bookId/chapters/:chapter/verses/count", handler.Handle(s.Handler, s.VerseCountInChapter, http.StatusOK, handler.NewRequest[handler.ChapterRequest]))

	translation := g.Group("/translations/:translationId")
	translation.GET("/summaries", handler.Handle(s.Handler, s.ListBookSummaries, http.StatusOK, handler.NewRequest[handler.ListSummariesRequest]))
	translation.GET("/promise-box/draw", handler.Handle(s.Handler, s.DrawPromise, http.StatusOK, handler.NewRequest[handler.DrawPromiseRequest]))

	chapter := translation.Group("/books/:bookId/chapters/:chapter")
	chapter.GET("/count", handler.Handle(s.Handler, s.VerseCountAggregate, http.StatusOK, handler.NewRequest[handler.TranslationChapterRequest]))
	chapter.GET("/verses", handler.Handle(s.Handler, s.GetVerses, http.StatusOK, handler.NewRequest[handler.GetVersesRequest]))
	chapter.GET("/verses/:number", handler.Handle(s.Handler, s.GetVerse, http.StatusOK, handler.NewRequest[handler.GetVerseRequest]))

	promiseBox := g.Group("/promise-box")
	promiseBox.GET("/count", handler.Handle(s.Handler, s.PromiseBoxCount, http.StatusOK, handler.NewRequest[handler.EmptyRequest]))
	promiseBox.GET("/:promiseBoxId", handler.Handle(s.Handler, s.PromiseBoxEntries, http.StatusOK, handler.NewRequest[handler.PromiseBoxRequest]))
}
