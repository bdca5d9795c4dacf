package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"lazyload/pkg/eventloop"
	"lazyload/pkg/html"
	"lazyload/pkg/images"
	"lazyload/pkg/lazyload"
	"lazyload/pkg/page"
	"lazyload/pkg/render"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompare(t *testing.T) {
	red := solid(10, 10, color.RGBA{255, 0, 0, 255})
	nearRed := solid(10, 10, color.RGBA{253, 1, 0, 255})
	blue := solid(10, 10, color.RGBA{0, 0, 255, 255})
	oneOff := solid(10, 10, color.RGBA{255, 0, 0, 255})
	oneOff.Set(3, 3, color.RGBA{0, 0, 255, 255})

	tests := []struct {
		name      string
		actual    image.Image
		opts      Options
		match     bool
		different int
	}{
		{"identical", red, DefaultOptions(), true, 0},
		{"within tolerance", nearRed, DefaultOptions(), true, 0},
		{"exact rejects small drift", nearRed, Options{}, false, 100},
		{"different", blue, DefaultOptions(), false, 100},
		{"one pixel", oneOff, DefaultOptions(), false, 1},
		{"one pixel under percent", oneOff, Options{Tolerance: 2, MaxDifferentPercent: 1}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compare(tt.actual, red, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if res.Match != tt.match || res.DifferentPixels != tt.different {
				t.Errorf("expected match=%v different=%d, got %+v", tt.match, tt.different, res)
			}
		})
	}
}

func TestCompare_Fuzzy(t *testing.T) {
	expected := solid(10, 10, color.RGBA{255, 0, 0, 255})
	expected.Set(3, 3, color.RGBA{0, 0, 255, 255})
	shifted := solid(10, 10, color.RGBA{255, 0, 0, 255})
	shifted.Set(4, 3, color.RGBA{0, 0, 255, 255})

	if res, _ := Compare(shifted, expected, DefaultOptions()); res.DifferentPixels != 2 {
		t.Errorf("expected 2 different pixels without fuzz, got %d", res.DifferentPixels)
	}
	res, _ := Compare(shifted, expected, Options{Tolerance: 2, FuzzyRadius: 1})
	if !res.Match || res.DifferentPixels != 0 {
		t.Errorf("a one pixel shift should match with radius 1, got %+v", res)
	}
}

func TestCompare_SizeMismatch(t *testing.T) {
	_, err := Compare(solid(10, 10, color.White), solid(20, 10, color.White), DefaultOptions())
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestCompare_DiffImage(t *testing.T) {
	actual := solid(4, 4, color.White)
	actual.Set(1, 2, color.Black)
	res, err := Compare(actual, solid(4, 4, color.White), Options{Diff: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Diff.RGBAAt(1, 2); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("expected the mismatch in red, got %v", got)
	}
	if got := res.Diff.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected a grey copy elsewhere, got %v", got)
	}
}

func TestCompareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.png")
	if err := SavePNG(solid(5, 5, color.White), path); err != nil {
		t.Fatal(err)
	}
	res, err := CompareFile(solid(5, 5, color.White), path, DefaultOptions())
	if err != nil || !res.Match {
		t.Errorf("expected a match, got %+v, %v", res, err)
	}
	if _, err := CompareFile(solid(5, 5, color.White), filepath.Join(t.TempDir(), "absent.png"), DefaultOptions()); err == nil {
		t.Error("expected an error for a missing reference")
	}
}

// A viewport snapshot changes exactly when the loader reveals the image.
func TestLazyLoadChangesSnapshot(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(8, 8, color.RGBA{0, 160, 0, 255})); err != nil {
		t.Fatal(err)
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	doc, err := html.Parse(`<div style="height: 40px"></div>
<img dataset="` + uri + `" width="40" height="40" style="display:block">
<div style="height: 400px"></div>
<img dataset="` + uri + `" width="40" height="40" style="display:block">`)
	if err != nil {
		t.Fatal(err)
	}
	loop := eventloop.New(eventloop.WithClock(eventloop.NewManualClock(time.Unix(0, 0))))
	p := page.New(doc, loop, 100, 100)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := render.NewRenderer(100, 100, images.NewCache(nil), quiet)

	// Offset 1 keeps the second image out of range until the page scrolls.
	capture := func() image.Image {
		r.Render(p)
		return cloneOf(r.Image())
	}
	before := capture()
	loader := lazyload.New(p, p.Window, lazyload.Options{Offset: 1, Logger: quiet})
	afterLoad := capture()
	if res, _ := Compare(afterLoad, before, DefaultOptions()); res.Match {
		t.Error("loading the first image should change the viewport")
	}
	if res, _ := Compare(capture(), afterLoad, DefaultOptions()); !res.Match {
		t.Error("rendering twice without changes should match")
	}

	p.Window.ScrollTo(440)
	scrolled := capture()
	if err := loop.Advance(loader.LoadDelay()); err != nil {
		t.Fatal(err)
	}
	if loader.Loaded() != 2 {
		t.Fatalf("expected both images loaded, got %d", loader.Loaded())
	}
	if res, _ := Compare(capture(), scrolled, DefaultOptions()); res.Match {
		t.Error("the debounced scan should replace the placeholder")
	}
}

func cloneOf(img image.Image) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
