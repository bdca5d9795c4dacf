package main

import (
	"fmt"
	"io"
	"time"

	"lazyload/pkg/config"
	"lazyload/pkg/lazyload"
	"lazyload/pkg/page"
)

// simulation scrolls a page on its manual clock and prints a line every
// time the loaders reveal more images.
type simulation struct {
	page    *page.Page
	loaders []*lazyload.Loader
	out     io.Writer
	start   time.Time

	loaded int
	events int
}

func (s *simulation) counts() (loaded, total int) {
	for _, l := range s.loaders {
		loaded += l.Loaded()
		total += l.Total()
	}
	return loaded, total
}

// report prints a line when the loaded count moved since the last call.
func (s *simulation) report() {
	loaded, total := s.counts()
	if loaded == s.loaded && s.events > 0 {
		return
	}
	elapsed := s.page.Loop.Now().Sub(s.start)
	fmt.Fprintf(s.out, "%8v  scrollY=%-6.0f loaded %d/%d (+%d)\n",
		elapsed, s.page.Window.PageYOffset(), loaded, total, loaded-s.loaded)
	s.loaded = loaded
}

func (s *simulation) advance(d time.Duration) {
	// Advance only fails without a manual clock, which run always installs.
	_ = s.page.Loop.Advance(d)
	s.report()
}

// scrollToBottom steps down the page one scroll event at a time until the
// window can go no further, then lets pending debounce timers settle.
func (s *simulation) scrollToBottom(cfg config.SimulateConfig) {
	for s.page.Window.ScrollBy(cfg.Step) {
		s.events++
		s.advance(cfg.Interval)
	}
	s.advance(cfg.Settle)
}

func (s *simulation) summary() {
	loaded, total := s.counts()
	fmt.Fprintf(s.out, "%d scroll events, %d/%d images loaded in %v\n",
		s.events, loaded, total, s.page.Loop.Now().Sub(s.start))
	for i, l := range s.loaders {
		fmt.Fprintf(s.out, "  loader %d: %d/%d, offset %.0f, delay %v, %s, subscribed=%t\n",
			i, l.Loaded(), l.Total(), l.Offset(), l.LoadDelay(), l.State(), l.Subscribed())
	}
}
