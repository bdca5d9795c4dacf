// Package lazyload defers image loading until an image nears the viewport.
//
// A Loader takes a fixed set of candidate elements, each carrying the real
// image URL in a pending attribute. Whenever a candidate's top edge falls
// above innerHeight + pageYOffset + Offset, the loader copies the URL into
// src, tags the element with LoadedClass and drops the pending attribute.
// Scroll events are debounced by LoadDelay. Once every candidate has been
// revealed the next scroll event detaches the listener for good.
package lazyload

import (
	"log/slog"
	"time"

	"lazyload/pkg/html"
	"lazyload/pkg/window"
)

const (
	DefaultAttribute   = "dataset"
	DefaultLoadedClass = "lazy--loaded"
	DefaultLoadDelay   = 100 * time.Millisecond

	// DefaultOffsetRatio scales innerHeight when no Offset is given.
	DefaultOffsetRatio = 0.5
)

// Document is the element source a Loader scans.
type Document interface {
	QuerySelectorAll(selector string) ([]*html.Node, error)
	OffsetTop(node *html.Node) float64
}

// Window supplies viewport metrics, the scroll subscription and timers.
type Window interface {
	InnerHeight() float64
	PageYOffset() float64
	AddEventListener(typ string, l *window.Listener)
	RemoveEventListener(typ string, l *window.Listener) bool
	SetTimeout(fn func(), delay time.Duration) int
	ClearTimeout(id int)
}

// Options configure a Loader at construction. Zero values select defaults.
type Options struct {
	// Images is the candidate set. nil selects every img[Attribute] in the
	// document; a non-nil empty slice is an explicit empty set.
	Images []*html.Node

	// Offset is the look-ahead below the fold, in pixels. 0 selects
	// DefaultOffsetRatio × innerHeight.
	Offset float64

	// LoadDelay is the quiet period after the last scroll event before a
	// scan runs. 0 selects DefaultLoadDelay.
	LoadDelay time.Duration

	LoadedClass string
	Attribute   string

	// ShowStats logs a Stats record when the loader unsubscribes.
	ShowStats bool

	Logger *slog.Logger
}

// State is the loader lifecycle.
type State int

const (
	Active State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "done"
	}
	return "active"
}

// Stats is the diagnostic snapshot emitted on unsubscribe.
type Stats struct {
	TotalImages       int
	TotalImagesLoaded int
	Offset            float64
	LoadDelay         time.Duration
	TimeoutID         int
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("totalImages", s.TotalImages),
		slog.Int("totalImagesLoaded", s.TotalImagesLoaded),
		slog.Float64("offset", s.Offset),
		slog.Duration("loadDelay", s.LoadDelay),
		slog.Int("timeout_id", s.TimeoutID),
	)
}

// Loader is bound to one document and one window. It is not safe for
// concurrent use: construct it and deliver events on the window's event
// loop goroutine.
type Loader struct {
	doc    Document
	win    Window
	logger *slog.Logger

	images      []*html.Node
	attribute   string
	loadedClass string
	offset      float64
	loadDelay   time.Duration
	showStats   bool

	imageCounter  int
	loadedCounter int

	timeout    int // handle of the armed scan, 0 when none
	lastTimer  int // last handle armed, reported in Stats
	listener   *window.Listener
	subscribed bool
	state      State
}

// New builds a loader, reveals everything already within the threshold,
// and subscribes to scroll events unless nothing is left to load.
func New(doc Document, win Window, opts Options) *Loader {
	l := &Loader{
		doc:         doc,
		win:         win,
		logger:      opts.Logger,
		attribute:   opts.Attribute,
		loadedClass: opts.LoadedClass,
		offset:      opts.Offset,
		loadDelay:   opts.LoadDelay,
		showStats:   opts.ShowStats,
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.attribute == "" {
		l.attribute = DefaultAttribute
	}
	if l.loadedClass == "" {
		l.loadedClass = DefaultLoadedClass
	}
	if l.offset == 0 {
		l.offset = DefaultOffsetRatio * win.InnerHeight()
	}
	if l.loadDelay <= 0 {
		l.loadDelay = DefaultLoadDelay
	}

	if opts.Images != nil {
		l.images = append([]*html.Node(nil), opts.Images...)
	} else {
		l.images = l.queryCandidates()
	}
	l.imageCounter = len(l.images)
	l.listener = window.NewListener(func(window.Event) { l.onScroll() })

	l.ScanAndLoad()
	if l.IsDone() {
		l.state = Done
		return l
	}
	l.win.AddEventListener(window.EventScroll, l.listener)
	l.subscribed = true
	return l
}

func (l *Loader) queryCandidates() []*html.Node {
	selector := `img[` + l.attribute + `]`
	nodes, err := l.doc.QuerySelectorAll(selector)
	if err != nil {
		l.logger.Warn("lazyload: no candidates", "selector", selector, "error", err)
		return []*html.Node{}
	}
	return nodes
}

// ScanAndLoad reveals every candidate still pending whose top edge is
// within the threshold, in candidate order, and returns how many it
// revealed. Candidates without the pending attribute are skipped.
func (l *Loader) ScanAndLoad() int {
	threshold := l.win.InnerHeight() + l.win.PageYOffset() + l.offset
	revealed := 0
	for _, img := range l.images {
		if img == nil {
			continue
		}
		url, pending := img.GetAttribute(l.attribute)
		if !pending {
			continue
		}
		if l.doc.OffsetTop(img) >= threshold {
			continue
		}
		img.SetAttribute("src", url)
		img.AddClass(l.loadedClass)
		img.RemoveAttribute(l.attribute)
		l.loadedCounter++
		revealed++
	}
	if revealed > 0 {
		l.logger.Debug("lazyload: revealed images",
			"count", revealed, "loaded", l.loadedCounter, "total", l.imageCounter)
	}
	return revealed
}

// IsDone reports whether every candidate has been revealed.
func (l *Loader) IsDone() bool {
	return l.loadedCounter == l.imageCounter
}

// onScroll debounces scans: each event cancels the armed scan and arms a
// new one LoadDelay out. Once everything is loaded it detaches instead.
func (l *Loader) onScroll() {
	if l.IsDone() {
		l.cancelPending()
		l.state = Done
		l.Unsubscribe()
		return
	}
	l.cancelPending()
	l.timeout = l.win.SetTimeout(l.fire, l.loadDelay)
	l.lastTimer = l.timeout
}

func (l *Loader) fire() {
	l.timeout = 0
	l.ScanAndLoad()
}

func (l *Loader) cancelPending() {
	if l.timeout != 0 {
		l.win.ClearTimeout(l.timeout)
		l.timeout = 0
	}
}

// Unsubscribe detaches the scroll listener and drops any armed scan. With
// ShowStats set, the first call logs the final Stats. Later calls do
// nothing.
func (l *Loader) Unsubscribe() {
	if !l.subscribed {
		return
	}
	l.cancelPending()
	l.win.RemoveEventListener(window.EventScroll, l.listener)
	l.subscribed = false
	if l.showStats {
		l.logger.Info("lazyload: stats", "stats", l.Stats())
	}
}

// Subscribed reports whether the scroll listener is attached.
func (l *Loader) Subscribed() bool {
	return l.subscribed
}

func (l *Loader) State() State {
	return l.state
}

// Loaded is the number of candidates revealed so far.
func (l *Loader) Loaded() int {
	return l.loadedCounter
}

// Total is the fixed size of the candidate set.
func (l *Loader) Total() int {
	return l.imageCounter
}

// Offset is the effective look-ahead in pixels.
func (l *Loader) Offset() float64 {
	return l.offset
}

func (l *Loader) LoadDelay() time.Duration {
	return l.loadDelay
}

func (l *Loader) Stats() Stats {
	return Stats{
		TotalImages:       l.imageCounter,
		TotalImagesLoaded: l.loadedCounter,
		Offset:            l.offset,
		LoadDelay:         l.loadDelay,
		TimeoutID:         l.lastTimer,
	}
}
