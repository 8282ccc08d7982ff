package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/vk/shapecraft/args"
	"github.com/vk/shapecraft/internal/ctxlog"
	"github.com/vk/shapecraft/shape"
)

// Target is the sample configuration the demo builds from flags, exercising
// scalars, parse-from-string, lists, and options in one shape.
type Target struct {
	Host    string   `shape:"host"`
	Port    uint16   `shape:"port"`
	Tags    []string `shape:"tags"`
	Timeout *float64 `shape:"timeout"`
}

// main is the entrypoint for the shapecraft demo binary.
func main() {
	// Use a minimal logger until better ideas come along.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main logic for easier testing and error handling.
func run(outW io.Writer, argv []string) error {
	ctx := ctxlog.WithLogger(context.Background(), slog.Default())

	s, err := shape.For[Target]()
	if err != nil {
		return err
	}

	v, err := args.Build(ctx, s, argv)
	if err != nil {
		return err
	}

	spew.Fdump(outW, v)
	return nil
}
