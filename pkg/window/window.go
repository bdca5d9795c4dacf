// Package window models the browsing viewport: its size, vertical scroll
// position, event listeners and timers.
package window

import (
	"math"
	"time"

	"lazyload/pkg/eventloop"
)

// Event types dispatched by Window.
const (
	EventScroll = "scroll"
	EventResize = "resize"
)

// Event is delivered to listeners.
type Event struct {
	Type    string
	ScrollY float64
}

// Listener wraps a handler. Removal matches by *Listener identity, so the
// value returned from NewListener must be kept to unsubscribe.
type Listener struct {
	fn func(Event)
}

func NewListener(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

// Window is not safe for concurrent use; it belongs to the goroutine
// driving its event loop.
type Window struct {
	loop         *eventloop.Loop
	innerWidth   float64
	innerHeight  float64
	scrollY      float64
	scrollHeight float64
	listeners    map[string][]*Listener
}

func New(loop *eventloop.Loop, width, height float64) *Window {
	return &Window{
		loop:         loop,
		innerWidth:   width,
		innerHeight:  height,
		scrollHeight: height,
		listeners:    make(map[string][]*Listener),
	}
}

func (w *Window) InnerWidth() float64  { return w.innerWidth }
func (w *Window) InnerHeight() float64 { return w.innerHeight }

// PageYOffset is the current vertical scroll position.
func (w *Window) PageYOffset() float64 { return w.scrollY }

// ScrollHeight is the height of the scrollable document.
func (w *Window) ScrollHeight() float64 { return w.scrollHeight }

// MaxScrollY is the largest reachable scroll position.
func (w *Window) MaxScrollY() float64 {
	return math.Max(0, w.scrollHeight-w.innerHeight)
}

// SetScrollHeight records the document height and clamps the current
// position into the new range. Clamping does not dispatch scroll.
func (w *Window) SetScrollHeight(h float64) {
	w.scrollHeight = math.Max(h, w.innerHeight)
	w.scrollY = w.clamp(w.scrollY)
}

// ScrollTo moves to y, clamped to the scrollable range, and dispatches a
// scroll event when the position actually changes. It reports whether it
// moved.
func (w *Window) ScrollTo(y float64) bool {
	y = w.clamp(y)
	if y == w.scrollY {
		return false
	}
	w.scrollY = y
	w.Dispatch(Event{Type: EventScroll, ScrollY: y})
	return true
}

func (w *Window) ScrollBy(dy float64) bool {
	return w.ScrollTo(w.scrollY + dy)
}

// Resize changes the viewport and dispatches resize.
func (w *Window) Resize(width, height float64) {
	w.innerWidth = width
	w.innerHeight = height
	w.scrollHeight = math.Max(w.scrollHeight, height)
	w.scrollY = w.clamp(w.scrollY)
	w.Dispatch(Event{Type: EventResize, ScrollY: w.scrollY})
}

func (w *Window) clamp(y float64) float64 {
	return math.Min(math.Max(0, y), w.MaxScrollY())
}

// AddEventListener subscribes l to typ. Adding the same listener twice is a
// no-op.
func (w *Window) AddEventListener(typ string, l *Listener) {
	for _, existing := range w.listeners[typ] {
		if existing == l {
			return
		}
	}
	w.listeners[typ] = append(w.listeners[typ], l)
}

// RemoveEventListener unsubscribes l and reports whether it was subscribed.
func (w *Window) RemoveEventListener(typ string, l *Listener) bool {
	ls := w.listeners[typ]
	for i, existing := range ls {
		if existing == l {
			w.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Window) ListenerCount(typ string) int {
	return len(w.listeners[typ])
}

// Dispatch calls every listener subscribed to ev.Type at the time of the
// call. Listeners removed during dispatch still see this event.
func (w *Window) Dispatch(ev Event) {
	snapshot := append([]*Listener(nil), w.listeners[ev.Type]...)
	for _, l := range snapshot {
		l.fn(ev)
	}
}

// SetTimeout schedules fn on the window's event loop.
func (w *Window) SetTimeout(fn func(), delay time.Duration) int {
	return w.loop.SetTimeout(fn, delay)
}

func (w *Window) ClearTimeout(id int) {
	w.loop.ClearTimeout(id)
}

// Loop returns the event loop the window schedules on.
func (w *Window) Loop() *eventloop.Loop {
	return w.loop
}
