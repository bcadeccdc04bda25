// Command biblia serves the scripture read API and answers the same
// queries from the command line.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI is the command-line interface. serve is the default command.
type CLI struct {
	Serve        ServeCmd        `cmd:"" default:"1" help:"Start the HTTP API server"`
	Migrate      MigrateCmd      `cmd:"" help:"Apply the bundled schema migrations"`
	Translations TranslationsCmd `cmd:"" help:"List translations"`
	Books        BooksCmd        `cmd:"" help:"List books in canonical order"`
	Verse        VerseCmd        `cmd:"" help:"Print one verse"`
	Verses       VersesCmd       `cmd:"" help:"Print several verses of a chapter"`
	Summaries    SummariesCmd    `cmd:"" help:"Print chapter and verse counts per book"`
}

func newParser(cli *CLI, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name("biblia"),
		kong.Description("Read-only API over a multi-translation scripture corpus"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	}, opts...)
	return kong.New(cli, opts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	parser, err := newParser(&cli,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	parser.FatalIfErrorf(kctx.Run())
}
