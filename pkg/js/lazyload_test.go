package js

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"lazyload/pkg/window"
)

const scrollPage = `
<div style="height: 100px"></div>
<img id="near" dataset="near.png" height="10" style="display:block">
<div style="height: 1400px"></div>
<img id="far" dataset="far.png" height="10" style="display:block">
<div style="height: 3000px"></div>`

func TestLazyImageLoadFromScript(t *testing.T) {
	e, p := newTestEngine(t, scrollPage)
	run(t, e, `
		var lazy = new LazyImageLoad();
		var near = document.getElementById("near");
		if (near.src !== "near.png") throw new Error("near not loaded: " + near.src);
		if (!near.classList.contains("lazy--loaded")) throw new Error("class missing");
		if (near.hasAttribute("dataset")) throw new Error("attribute kept");
		if (lazy.loadedCounter !== 1 || lazy.imageCounter !== 2) throw new Error("counters " + lazy.loadedCounter + "/" + lazy.imageCounter);
		if (lazy.isDone()) throw new Error("should not be done");
		if (lazy.offset !== 300 || lazy.loadDelay !== 100) throw new Error("defaults");
	`)
	if len(e.Loaders()) != 1 {
		t.Fatalf("expected one loader, got %d", len(e.Loaders()))
	}

	run(t, e, `window.scrollTo(0, 800);`)
	p.Loop.Advance(99 * time.Millisecond)
	run(t, e, `if (document.getElementById("far").src !== "") throw new Error("loaded before delay");`)
	p.Loop.Advance(time.Millisecond)
	run(t, e, `
		if (document.getElementById("far").src !== "far.png") throw new Error("far not loaded");
		if (!lazy.isDone()) throw new Error("expected done");
		window.scrollBy(0, 10);
		if (lazy.state !== "done") throw new Error("state: " + lazy.state);
	`)
	if n := p.Window.ListenerCount(window.EventScroll); n != 0 {
		t.Errorf("expected listener removed, got %d", n)
	}
}

func TestLazyImageLoadOptions(t *testing.T) {
	e, p := newTestEngine(t, `
		<img id="a" data-src="a.png" height="10" style="display:block">
		<img id="b" data-src="b.png" height="10" style="display:block">
		<div style="height: 3000px"></div>`)
	run(t, e, `
		var only = [document.getElementById("b")];
		var lazy = new LazyImageLoad({
			images: only, attribute: "data-src", loadedClass: "shown",
			offset: 50, loadDelay: 250, showStats: false
		});
		if (lazy.imageCounter !== 1) throw new Error("imageCounter " + lazy.imageCounter);
		if (!document.getElementById("b").classList.contains("shown")) throw new Error("b not shown");
		if (document.getElementById("a").src !== "") throw new Error("a is not a candidate");
		if (lazy.loadDelay !== 250 || lazy.offset !== 50) throw new Error("options");
		var s = lazy.stats();
		if (s.totalImages !== 1 || s.totalImagesLoaded !== 1) throw new Error("stats");
	`)
	if p.Window.ListenerCount(window.EventScroll) != 0 {
		t.Error("all loaded at construction, no listener expected")
	}
}

func TestLazyImageLoadEmptyImages(t *testing.T) {
	e, _ := newTestEngine(t, scrollPage)
	run(t, e, `
		var lazy = new LazyImageLoad({images: []});
		if (!lazy.isDone() || lazy.imageCounter !== 0) throw new Error("expected empty set");
		if (document.getElementById("near").src !== "") throw new Error("empty set loaded something");
	`)
}

func TestLazyImageLoadRejectsNonElements(t *testing.T) {
	e, _ := newTestEngine(t, scrollPage)
	run(t, e, `
		var caught = null;
		try { new LazyImageLoad({images: [1, 2]}); } catch (err) { caught = err; }
		if (!(caught instanceof TypeError)) throw new Error("expected TypeError, got " + caught);
	`)
}

func TestLazyImageLoadShowStats(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPage(t, scrollPage)
	e := New(p, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	run(t, e, `
		var lazy = new LazyImageLoad({showStats: true});
		lazy.unsubscribe();
		lazy.unsubscribe();
	`)
	if got := strings.Count(buf.String(), "lazyload: stats"); got != 1 {
		t.Fatalf("expected one stats record, got %d in %q", got, buf.String())
	}
	if !strings.Contains(buf.String(), "stats.totalImages=2") {
		t.Errorf("missing counters in %q", buf.String())
	}
}

func TestPageScriptWithDebouncedListener(t *testing.T) {
	p := newTestPage(t, scrollPage+`
		<script>
			var lazy = new LazyImageLoad({loadDelay: 50});
			var scans = 0;
			window.addEventListener("scroll", function () { scans++; });
		</script>`)
	e := New(p, WithLogger(quiet))
	if err := e.Execute(); err != nil {
		t.Fatal(err)
	}
	for y := 100.0; y <= 800; y += 100 {
		p.Window.ScrollTo(y)
		p.Loop.Advance(20 * time.Millisecond)
	}
	if p.Loop.Pending() != 1 {
		t.Fatalf("expected one armed scan, got %d", p.Loop.Pending())
	}
	run(t, e, `if (document.getElementById("far").src !== "") throw new Error("scan ran mid-burst");`)
	p.Loop.Advance(50 * time.Millisecond)
	run(t, e, `
		if (document.getElementById("far").src !== "far.png") throw new Error("far not loaded");
		if (scans !== 8) throw new Error("scroll events: " + scans);
	`)
}
