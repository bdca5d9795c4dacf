// Command lazyload loads a page headlessly, runs its lazy image loader,
// scrolls through it on a virtual clock and reports what was revealed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"lazyload/pkg/config"
	"lazyload/pkg/eventloop"
	"lazyload/pkg/html"
	"lazyload/pkg/images"
	"lazyload/pkg/js"
	"lazyload/pkg/lazyload"
	"lazyload/pkg/page"
	"lazyload/pkg/render"
	"lazyload/pkg/resource"
	"lazyload/pkg/snapshot"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lazyload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default: ./lazyload.yaml if present)")
	width := fs.Float64("w", 0, "viewport width in pixels")
	height := fs.Float64("h", 0, "viewport height in pixels")
	step := fs.Float64("step", 0, "pixels scrolled per event")
	interval := fs.Duration("interval", 0, "virtual time between scroll events")
	settle := fs.Duration("settle", 0, "virtual time to wait after the last scroll")
	native := fs.Bool("native", false, "ignore page scripts and construct the loader directly")
	attribute := fs.String("attribute", "", "pending-URL attribute")
	offset := fs.Float64("offset", 0, "look-ahead below the fold in pixels")
	delay := fs.Duration("delay", 0, "scroll debounce delay")
	stats := fs.Bool("stats", false, "log loader stats on unsubscribe")
	output := fs.String("o", "", "save a PNG of the final viewport")
	ref := fs.String("ref", "", "compare the final viewport against a reference PNG")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lazyload [flags] <page.html|url>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "w":
			cfg.Viewport.Width = *width
		case "h":
			cfg.Viewport.Height = *height
		case "step":
			cfg.Simulate.Step = *step
		case "interval":
			cfg.Simulate.Interval = *interval
		case "settle":
			cfg.Simulate.Settle = *settle
		case "native":
			cfg.Loader.Scripts = !*native
		case "attribute":
			cfg.Loader.Attribute = *attribute
		case "offset":
			cfg.Loader.Offset = *offset
		case "delay":
			cfg.Loader.LoadDelay = *delay
		case "stats":
			cfg.Loader.ShowStats = *stats
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := config.SetupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error setting up logging: %v\n", err)
		return 1
	}

	src := fs.Arg(0)
	fetcher := resource.NewFetcher(resource.BaseOf(src))
	body, err := fetcher.FetchPage(ctx, src)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading page: %v\n", err)
		return 1
	}
	doc, err := html.Parse(body)
	if err != nil {
		fmt.Fprintf(stderr, "Error parsing HTML: %v\n", err)
		return 1
	}

	loop := eventloop.New(
		eventloop.WithClock(eventloop.NewManualClock(time.Unix(0, 0))),
		eventloop.WithLogger(logger),
	)
	p := page.New(doc, loop, cfg.Viewport.Width, cfg.Viewport.Height)
	loaders := startLoaders(p, cfg, logger)
	if len(loaders) == 0 {
		fmt.Fprintln(stderr, "Error: page scripts created no loader")
		return 1
	}

	fmt.Fprintf(stdout, "%s: %d loader(s), viewport %.0fx%.0f, document height %.0f\n",
		src, len(loaders), cfg.Viewport.Width, cfg.Viewport.Height, p.Window.ScrollHeight())
	sim := &simulation{page: p, loaders: loaders, out: stdout, start: loop.Now()}
	sim.report()
	sim.scrollToBottom(cfg.Simulate)
	sim.summary()

	if *output == "" && *ref == "" {
		return 0
	}
	cache := images.NewCache(fetcher.ImageFetcher(ctx))
	r := render.NewRenderer(int(cfg.Viewport.Width), int(cfg.Viewport.Height), cache, logger)
	rs := r.Render(p)
	if *output != "" {
		if err := r.SavePNG(*output); err != nil {
			fmt.Fprintf(stderr, "Error saving PNG: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "saved %s (%d images, %d placeholders, %d broken)\n",
			*output, rs.Images, rs.Placeholders, rs.Broken)
	}
	if *ref != "" {
		res, err := snapshot.CompareFile(r.Image(), *ref, snapshot.DefaultOptions())
		if err != nil {
			fmt.Fprintf(stderr, "Error comparing snapshot: %v\n", err)
			return 1
		}
		if !res.Match {
			fmt.Fprintf(stdout, "snapshot differs from %s: %d/%d pixels, max difference %d\n",
				*ref, res.DifferentPixels, res.TotalPixels, res.MaxDifference)
			return 1
		}
		fmt.Fprintf(stdout, "snapshot matches %s\n", *ref)
	}
	return 0
}

// startLoaders runs the page's scripts when allowed and returns the
// loaders they built. Without scripts a native loader is built from cfg.
func startLoaders(p *page.Page, cfg *config.Config, logger *slog.Logger) []*lazyload.Loader {
	if cfg.Loader.Scripts && len(p.Doc.Scripts) > 0 {
		engine := js.New(p, js.WithLogger(logger))
		if err := engine.Execute(); err != nil {
			logger.Warn("page script failed", "error", err)
		}
		return engine.Loaders()
	}
	return []*lazyload.Loader{lazyload.New(p, p.Window, cfg.Loader.Options(logger))}
}
