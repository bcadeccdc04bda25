package main

import (
	"context"
	"io"

	"github.com/deppfellow/biblia/internal/lib/utils"
)

// withApp runs fn against a freshly wired app and prints its result.
func withApp(out io.Writer, fn func(a *app) (any, error)) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := fn(a)
	if err != nil {
		return err
	}
	return utils.WriteJSON(out, result)
}

type TranslationsCmd struct{}

func (cmd *TranslationsCmd) Run(ctx context.Context, out io.Writer) error {
	return withApp(out, func(a *app) (any, error) {
		return a.scripture.ListTranslations(ctx)
	})
}

type BooksCmd struct {
	Testament int `help:"Only books of this testament id" placeholder:"ID"`
}

func (cmd *BooksCmd) Run(ctx context.Context, out io.Writer) error {
	return withApp(out, func(a *app) (any, error) {
		return a.scripture.ListBooks(ctx, utils.OptionalID(cmd.Testament))
	})
}

// Reference addresses a chapter in one translation.
type Reference struct {
	Translation int `arg:"" help:"Translation id"`
	Book        int `arg:"" help:"Book id"`
	Chapter     int `arg:"" help:"Chapter number"`
}

type VerseCmd struct {
	Reference `embed:""`
	Number    int `arg:"" help:"Verse number"`
}

func (cmd *VerseCmd) Run(ctx context.Context, out io.Writer) error {
	return withApp(out, func(a *app) (any, error) {
		return a.scripture.GetVerse(ctx, cmd.Translation, cmd.Book, cmd.Chapter, cmd.Number)
	})
}

type VersesCmd struct {
	Reference `embed:""`
	Numbers   []int `arg:"" help:"Verse numbers"`
}

func (cmd *VersesCmd) Run(ctx context.Context, out io.Writer) error {
	return withApp(out, func(a *app) (any, error) {
		return a.scripture.GetVerses(ctx, cmd.Translation, cmd.Book, cmd.Chapter, cmd.Numbers)
	})
}

type SummariesCmd struct {
	Translation int `arg:"" help:"Translation id"`
	Testament   int `help:"Only books of this testament id" placeholder:"ID"`
	Book        int `help:"Only this book id" placeholder:"ID"`
}

func (cmd *SummariesCmd) Run(ctx context.Context, out io.Writer) error {
	return withApp(out, func(a *app) (any, error) {
		return a.scripture.ListBookSummaries(ctx, cmd.Translation, utils.OptionalID(cmd.Testament), utils.OptionalID(cmd.Book))
	})
}
