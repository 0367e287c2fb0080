package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/kailas-cloud/markdex/internal/app"
	"github.com/kailas-cloud/markdex/internal/config"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	"github.com/kailas-cloud/markdex/internal/importer"
)

var (
	titleColor   = color.New(color.FgGreen, color.Bold)
	urlColor     = color.New(color.FgBlue)
	scoreColor   = color.New(color.FgHiBlack)
	summaryColor = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
)

type cli struct {
	engine   *app.App
	defaults config.IndexConfig
	out      io.Writer
	errOut   io.Writer
}

func newCLI(engine *app.App, defaults config.IndexConfig, out, errOut io.Writer) *cli {
	return &cli{engine: engine, defaults: defaults, out: out, errOut: errOut}
}

func (c *cli) importFile(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("import", flag.ContinueOnError)
	fset.SetOutput(c.errOut)
	formatName := fset.String("format", "", "export format: chrome, netscape or json (default: detect)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("import needs exactly one file")
	}

	format, err := importer.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(fset.Arg(0)))
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer func() { _ = f.Close() }()

	raws, err := importer.Parse(f, format)
	if err != nil {
		return err
	}
	return c.index(ctx, raws)
}

func (c *cli) index(ctx context.Context, raws []bookmark.Raw) error {
	if len(raws) == 0 {
		warnColor.Fprintln(c.out, "No bookmarks found.")
		return nil
	}

	bar := newProgressBar(c.errOut, len(raws), "Indexing bookmarks")
	report, err := c.engine.Indexing.IndexWithProgress(ctx, raws, func(processed, _ int) {
		_ = bar.Set(processed)
	})
	_ = bar.Finish()
	fmt.Fprintln(c.errOut)

	printReport(c.out, &report)
	return err
}

func (c *cli) search(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("search", flag.ContinueOnError)
	fset.SetOutput(c.errOut)
	topK := fset.Int("k", c.defaults.DefaultTopK, "maximum number of results")
	minScore := fset.Float64("min", c.defaults.MinScore(), "minimum relevance score in [0, 1]")
	if err := fset.Parse(args); err != nil {
		return err
	}
	return c.query(ctx, strings.Join(fset.Args(), " "), *topK, *minScore)
}

func (c *cli) query(ctx context.Context, q string, topK int, minScore float64) error {
	req, err := request.New(q, topK, minScore)
	if err != nil {
		return err
	}
	out, err := c.engine.Search.Search(ctx, &req)
	if err != nil {
		return err
	}
	printOutcome(c.out, &out)
	return nil
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("remove needs exactly one url")
	}
	if err := c.engine.Indexing.Remove(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Removed %s\n", args[0])
	return nil
}

func (c *cli) stats() error {
	st := c.engine.Indexing.Stats()
	fmt.Fprintf(c.out, "entries:    %d\n", st.Size)
	fmt.Fprintf(c.out, "dimension:  %d\n", st.Dimension)
	fmt.Fprintf(c.out, "persistent: %t\n", st.Persistent)
	fmt.Fprintf(c.out, "ann:        enabled=%t active=%t pending=%d\n", st.ANNEnabled, st.ANNActive, st.Pending)
	if st.Halted {
		errColor.Fprintln(c.out, "index halted after a dimension mismatch")
	}
	return nil
}

// demo indexes the sample set and answers queries read from in until EOF or "exit".
func (c *cli) demo(ctx context.Context, in io.Reader) error {
	if err := c.index(ctx, importer.DemoBookmarks()); err != nil {
		return err
	}

	summaryColor.Fprintln(c.out, "\nSearch the sample bookmarks (type 'exit' to quit)")
	scanner := bufio.NewScanner(in)
	for {
		titleColor.Fprint(c.out, "\nsearch> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(q) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := c.query(ctx, q, c.defaults.DefaultTopK, c.defaults.MinScore()); err != nil {
			errColor.Fprintf(c.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("bookmarks"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printReport(w io.Writer, r *domindex.Report) {
	titleColor.Fprintf(w, "Indexed %d of %d bookmarks", r.Succeeded, r.Attempted)
	fmt.Fprintf(w, " in %s\n", r.Duration.Round(time.Millisecond))
	if r.Duplicates > 0 {
		fmt.Fprintf(w, "  duplicates collapsed: %d\n", r.Duplicates)
	}
	if r.Removed > 0 {
		fmt.Fprintf(w, "  removed (no longer present): %d\n", r.Removed)
	}
	if r.Cancelled {
		warnColor.Fprintln(w, "  cancelled before completion")
	}
	if !r.HasFailures() {
		return
	}
	errColor.Fprintf(w, "  %d failed:\n", r.Failed)
	for _, f := range r.Failures {
		errColor.Fprintf(w, "    %s [%s]: %s\n", f.URL(), f.Kind(), f.Message())
	}
}

func printOutcome(w io.Writer, o *result.Outcome) {
	if msg, ok := o.NoResultsMessage(); ok {
		warnColor.Fprintln(w, msg)
		return
	}

	for _, r := range o.Results() {
		titleColor.Fprintf(w, "%d. %s", r.Rank(), r.Title())
		scoreColor.Fprintf(w, " (%.3f)\n", r.Score())
		urlColor.Fprintf(w, "   %s\n", r.URL())
		if d := r.Description(); d != "" && d != r.Title() {
			fmt.Fprintf(w, "   %s\n", d)
		}
	}

	if s, ok := o.Summary(); ok {
		summaryColor.Fprintf(w, "\n%s\n", s)
	}
}
