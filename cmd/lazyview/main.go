// Command lazyview shows a page in a window and lazy-loads its images as
// the slider scrolls it.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/draw"

	"lazyload/pkg/config"
	"lazyload/pkg/eventloop"
	"lazyload/pkg/html"
	"lazyload/pkg/images"
	"lazyload/pkg/js"
	"lazyload/pkg/lazyload"
	"lazyload/pkg/page"
	"lazyload/pkg/render"
	"lazyload/pkg/resource"
)

// refreshInterval is how often the loop repaints while a page is open.
const refreshInterval = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "config file (default: ./lazyload.yaml if present)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lazyview [flags] [page.html|url]\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.SetupLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("lazyview")
	v := newViewer(w, cfg, logger)
	w.SetContent(v.content())
	w.Resize(fyne.NewSize(float32(cfg.Viewport.Width)+40, float32(cfg.Viewport.Height)+80))

	if flag.NArg() > 0 {
		v.urlEntry.SetText(flag.Arg(0))
		go v.open(flag.Arg(0))
	}
	w.Canvas().Focus(v.urlEntry)
	w.ShowAndRun()
	v.close()
}

// viewer owns one open page at a time. Page state is only touched from
// the page's loop goroutine; widgets are only touched inside fyne.Do.
type viewer struct {
	window fyne.Window
	cfg    *config.Config
	logger *slog.Logger

	canvasImg *canvas.Image
	urlEntry  *widget.Entry
	slider    *widget.Slider
	status    *widget.Label

	session *session
}

// session is a loaded page running on its own real-time loop.
type session struct {
	url      string
	page     *page.Page
	loaders  []*lazyload.Loader
	renderer *render.Renderer
	cancel   context.CancelFunc

	lastY      float64
	lastLoaded int
}

func newViewer(w fyne.Window, cfg *config.Config, logger *slog.Logger) *viewer {
	v := &viewer{window: w, cfg: cfg, logger: logger}

	blank := image.NewRGBA(image.Rect(0, 0, int(cfg.Viewport.Width), int(cfg.Viewport.Height)))
	v.canvasImg = canvas.NewImageFromImage(blank)
	v.canvasImg.FillMode = canvas.ImageFillOriginal

	v.status = widget.NewLabel("Enter a page path or URL and press Enter")

	v.urlEntry = widget.NewEntry()
	v.urlEntry.SetPlaceHolder("gallery.html")
	v.urlEntry.OnSubmitted = func(url string) {
		go v.open(url)
	}

	v.slider = widget.NewSlider(0, 1)
	v.slider.Orientation = widget.Vertical
	v.slider.Value = 1
	v.slider.OnChanged = v.scrolled
	return v
}

func (v *viewer) content() fyne.CanvasObject {
	topBar := container.NewBorder(nil, nil, nil, nil, v.urlEntry)
	return container.NewBorder(topBar, v.status, nil, v.slider, v.canvasImg)
}

// scrolled maps the vertical slider, whose top is its maximum, to a
// scroll position and posts it to the page's loop.
func (v *viewer) scrolled(value float64) {
	s := v.session
	if s == nil {
		return
	}
	s.page.Loop.Post(func() {
		s.page.Window.ScrollTo((1 - value) * s.page.Window.MaxScrollY())
	})
}

func (v *viewer) open(url string) {
	fyne.Do(func() { v.status.SetText("Loading " + url + "...") })

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := resource.NewFetcher(resource.BaseOf(url))
	body, err := fetcher.FetchPage(ctx, url)
	if err != nil {
		cancel()
		fyne.Do(func() { v.status.SetText("Error: " + err.Error()) })
		return
	}
	doc, err := html.Parse(body)
	if err != nil {
		cancel()
		fyne.Do(func() { v.status.SetText("Parse error: " + err.Error()) })
		return
	}

	loop := eventloop.New(eventloop.WithLogger(v.logger))
	p := page.New(doc, loop, v.cfg.Viewport.Width, v.cfg.Viewport.Height)
	s := &session{
		url:      url,
		page:     p,
		renderer: render.NewRenderer(int(v.cfg.Viewport.Width), int(v.cfg.Viewport.Height), images.NewCache(fetcher.ImageFetcher(ctx)), v.logger),
		cancel:   cancel,
		lastY:    -1,
	}

	fyne.Do(func() {
		if v.session != nil {
			v.session.cancel()
		}
		v.session = s
		v.slider.SetValue(1)
		title := doc.Title
		if title == "" {
			title = url
		}
		v.window.SetTitle("lazyview - " + title)

		loop.Post(func() {
			s.loaders = v.startLoaders(p)
			v.refresh(s)
		})
		go func() {
			if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
				v.logger.Error("event loop stopped", "url", url, "error", err)
			}
		}()
	})
}

// startLoaders runs on the loop goroutine.
func (v *viewer) startLoaders(p *page.Page) []*lazyload.Loader {
	if v.cfg.Loader.Scripts && len(p.Doc.Scripts) > 0 {
		engine := js.New(p, js.WithLogger(v.logger))
		if err := engine.Execute(); err != nil {
			v.logger.Warn("page script failed", "error", err)
		}
		if loaders := engine.Loaders(); len(loaders) > 0 {
			return loaders
		}
	}
	return []*lazyload.Loader{lazyload.New(p, p.Window, v.cfg.Loader.Options(v.logger))}
}

// refresh repaints when the scroll position or loaded count changed and
// re-arms itself. It runs on the loop goroutine.
func (v *viewer) refresh(s *session) {
	loaded, total := 0, 0
	for _, l := range s.loaders {
		loaded += l.Loaded()
		total += l.Total()
	}
	y := s.page.Window.PageYOffset()
	if y != s.lastY || loaded != s.lastLoaded {
		s.lastY, s.lastLoaded = y, loaded
		stats := s.renderer.Render(s.page)
		frame := cloneRGBA(s.renderer.Image())
		status := fmt.Sprintf("%s  scrollY=%.0f  loaded %d/%d  (%d drawn, %d pending)",
			s.url, y, loaded, total, stats.Images, stats.Placeholders)
		fyne.Do(func() {
			if v.session != s {
				return
			}
			v.canvasImg.Image = frame
			v.canvasImg.Refresh()
			v.status.SetText(status)
		})
	}
	s.page.Loop.SetTimeout(func() { v.refresh(s) }, refreshInterval)
}

func (v *viewer) close() {
	if v.session != nil {
		v.session.cancel()
	}
}

// cloneRGBA copies the renderer's canvas, which is reused between frames.
func cloneRGBA(src image.Image) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
