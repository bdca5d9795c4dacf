package render

import (
	"bytes"
	"encoding/base64"
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
	"lazyload/pkg/page"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func blueDataURI(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func testPage(t *testing.T, src string) *page.Page {
	t.Helper()
	doc, err := html.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	loop := eventloop.New(eventloop.WithClock(eventloop.NewManualClock(time.Unix(0, 0))))
	return page.New(doc, loop, 200, 100)
}

func TestRenderViewport(t *testing.T) {
	p := testPage(t, `
		<img src="`+blueDataURI(t)+`" width="40" height="40" style="display:block">
		<img dataset="later.png" width="40" height="40" style="display:block">
		<img src="missing.png" width="40" height="10" style="display:block">
		<div style="height: 500px"></div>
		<img dataset="far.png" width="40" height="40" style="display:block">`)

	r := NewRenderer(200, 100, images.NewCache(nil), quiet)
	stats := r.Render(p)

	if stats.Images != 1 || stats.Placeholders != 1 || stats.Broken != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
	img := r.Image()
	if c := color.RGBAModel.Convert(img.At(20, 20)).(color.RGBA); c.B < 200 || c.R > 50 {
		t.Errorf("expected blue at (20,20), got %v", c)
	}
	if c := color.RGBAModel.Convert(img.At(20, 60)).(color.RGBA); c.R < 190 || c.R > 235 || c.R != c.B {
		t.Errorf("expected grey placeholder at (20,60), got %v", c)
	}
	if c := color.RGBAModel.Convert(img.At(150, 50)).(color.RGBA); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white background, got %v", c)
	}
}

func TestRenderFollowsScroll(t *testing.T) {
	p := testPage(t, `
		<div style="height: 300px"></div>
		<img dataset="x.png" width="40" height="40" style="display:block">
		<div style="height: 300px"></div>`)
	r := NewRenderer(200, 100, nil, quiet)

	if stats := r.Render(p); stats.Placeholders != 0 {
		t.Errorf("image is below the fold, got %+v", stats)
	}
	p.Window.ScrollTo(280)
	if stats := r.Render(p); stats.Placeholders != 1 {
		t.Errorf("expected the placeholder in view, got %+v", stats)
	}
	if c := color.RGBAModel.Convert(r.Image().At(20, 40)).(color.RGBA); c.R == 255 {
		t.Errorf("expected placeholder pixels at (20,40), got %v", c)
	}
}

func TestRenderText(t *testing.T) {
	p := testPage(t, `<p>hello world</p>`)
	r := NewRenderer(200, 100, nil, quiet)
	if stats := r.Render(p); stats.TextLines != 1 {
		t.Errorf("expected one text line, got %+v", stats)
	}
}

func TestSavePNG(t *testing.T) {
	p := testPage(t, `<p>snapshot</p>`)
	r := NewRenderer(50, 20, nil, quiet)
	r.Render(p)
	path := filepath.Join(t.TempDir(), "out.png")
	if err := r.SavePNG(path); err != nil {
		t.Fatal(err)
	}
	w, h, err := images.NewCache(images.NewFilesystemFetcher("")).Dimensions(path)
	if err != nil {
		t.Fatal(err)
	}
	if w != 50 || h != 20 {
		t.Errorf("expected 50x20, got %dx%d", w, h)
	}
}
