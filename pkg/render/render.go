// Package render rasterizes the visible part of a page with gg.
package render

import (
	"image"
	"log/slog"

	"lazyload/pkg/images"
	"lazyload/pkg/layout"
	"lazyload/pkg/page"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// baseline offsets text from the top of its line box for the 13px gg face.
const baseline = 13.0

// Stats counts what the last Render call painted.
type Stats struct {
	Images       int // decoded and drawn
	Placeholders int // img without src yet
	Broken       int // src that failed to load
	TextLines    int
}

type Renderer struct {
	context *gg.Context
	cache   *images.Cache
	logger  *slog.Logger
}

// NewRenderer creates a width×height canvas. cache may be nil, in which
// case every image with a src is painted as broken.
func NewRenderer(width, height int, cache *images.Cache, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{context: gg.NewContext(width, height), cache: cache, logger: logger}
}

// Render paints the page's viewport at its current scroll position.
func (r *Renderer) Render(p *page.Page) Stats {
	r.context.SetRGB(1, 1, 1)
	r.context.Clear()

	var stats Stats
	top := p.Window.PageYOffset()
	bottom := top + float64(r.context.Height())

	p.Layout().Walk(func(box *layout.Box) {
		for _, line := range box.Lines {
			if line.Y+layout.LineHeight < top || line.Y > bottom {
				continue
			}
			r.context.SetRGB(0.1, 0.1, 0.1)
			r.context.DrawString(line.Text, line.X, line.Y-top+baseline)
			stats.TextLines++
		}
		if box.Node == nil || box.Node.TagName != "img" {
			return
		}
		if box.Y+box.Height < top || box.Y > bottom {
			return
		}
		r.drawImage(box, top, &stats)
	})
	return stats
}

func (r *Renderer) drawImage(box *layout.Box, top float64, stats *Stats) {
	x, y := box.X, box.Y-top
	src, ok := box.Node.GetAttribute("src")
	if !ok || src == "" {
		r.drawPlaceholder(x, y, box.Width, box.Height)
		stats.Placeholders++
		return
	}

	img, err := r.load(src)
	if err != nil {
		r.logger.Debug("render: image unavailable", "src", src, "error", err)
		r.drawBroken(x, y, box.Width, box.Height)
		stats.Broken++
		return
	}

	w, h := int(box.Width+0.5), int(box.Height+0.5)
	if w <= 0 || h <= 0 {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)
	r.context.DrawImage(scaled, int(x+0.5), int(y+0.5))
	stats.Images++
}

func (r *Renderer) load(src string) (image.Image, error) {
	if r.cache == nil {
		return nil, images.ErrNoFetcher
	}
	return r.cache.Load(src)
}

// drawPlaceholder paints the grey box shown until an image is revealed.
func (r *Renderer) drawPlaceholder(x, y, w, h float64) {
	r.context.SetRGB(0.85, 0.85, 0.85)
	r.context.DrawRectangle(x, y, w, h)
	r.context.Fill()
	r.context.SetRGB(0.7, 0.7, 0.7)
	r.context.SetLineWidth(1)
	r.context.DrawRectangle(x+0.5, y+0.5, w-1, h-1)
	r.context.Stroke()
}

// drawBroken draws the crossed box of an image that failed to load.
func (r *Renderer) drawBroken(x, y, w, h float64) {
	r.context.SetRGB(0.9, 0.9, 0.9)
	r.context.DrawRectangle(x, y, w, h)
	r.context.Fill()

	r.context.SetRGB(0.5, 0.5, 0.5)
	r.context.SetLineWidth(2)
	r.context.DrawLine(x, y, x+w, y+h)
	r.context.DrawLine(x+w, y, x, y+h)
	r.context.Stroke()
}

// Image returns the canvas.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}
