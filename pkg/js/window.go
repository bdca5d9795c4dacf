package js

import (
	"math"
	"time"

	"lazyload/pkg/window"

	"github.com/dop251/goja"
)

// windowAccessor backs the global `window`. Metrics are read live from the
// page's window on every access.
type windowAccessor struct {
	e         *Engine
	listeners []jsListener
}

// jsListener pairs a script function with the Go listener registered for
// it, so removeEventListener can find it again by function identity.
type jsListener struct {
	typ string
	fn  goja.Value
	l   *window.Listener
}

var windowKeys = []string{
	"innerWidth", "innerHeight", "pageYOffset", "scrollY",
	"scrollTo", "scroll", "scrollBy",
	"addEventListener", "removeEventListener",
	"setTimeout", "clearTimeout", "document",
}

func registerWindow(e *Engine) *windowAccessor {
	w := &windowAccessor{e: e}
	e.vm.Set("window", e.vm.NewDynamicObject(w))
	e.vm.Set("setTimeout", w.setTimeout)
	e.vm.Set("clearTimeout", w.clearTimeout)
	return w
}

func (w *windowAccessor) Get(key string) goja.Value {
	vm := w.e.vm
	win := w.e.page.Window

	switch key {
	case "innerWidth":
		return vm.ToValue(win.InnerWidth())
	case "innerHeight":
		return vm.ToValue(win.InnerHeight())
	case "pageYOffset", "scrollY":
		return vm.ToValue(win.PageYOffset())
	case "scrollTo", "scroll":
		return vm.ToValue(w.scrollTo)
	case "scrollBy":
		return vm.ToValue(w.scrollBy)
	case "addEventListener":
		return vm.ToValue(w.addEventListener)
	case "removeEventListener":
		return vm.ToValue(w.removeEventListener)
	case "setTimeout":
		return vm.ToValue(w.setTimeout)
	case "clearTimeout":
		return vm.ToValue(w.clearTimeout)
	case "document":
		return vm.Get("document")
	}
	return goja.Undefined()
}

func (w *windowAccessor) Set(key string, val goja.Value) bool {
	return false
}

func (w *windowAccessor) Has(key string) bool {
	for _, k := range windowKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (w *windowAccessor) Delete(key string) bool {
	return false
}

func (w *windowAccessor) Keys() []string {
	return windowKeys
}

// verticalArg reads the y coordinate of scrollTo(x, y) or the top member
// of scrollTo({top: y}).
func verticalArg(call goja.FunctionCall) (float64, bool) {
	if len(call.Arguments) == 0 {
		return 0, false
	}
	if len(call.Arguments) >= 2 {
		return call.Arguments[1].ToFloat(), true
	}
	if obj, ok := call.Arguments[0].(*goja.Object); ok {
		top := obj.Get("top")
		if top == nil || goja.IsUndefined(top) {
			return 0, false
		}
		return top.ToFloat(), true
	}
	return 0, false
}

func (w *windowAccessor) scrollTo(call goja.FunctionCall) goja.Value {
	if y, ok := verticalArg(call); ok && !math.IsNaN(y) {
		w.e.page.Window.ScrollTo(y)
	}
	return goja.Undefined()
}

func (w *windowAccessor) scrollBy(call goja.FunctionCall) goja.Value {
	if dy, ok := verticalArg(call); ok && !math.IsNaN(dy) {
		w.e.page.Window.ScrollBy(dy)
	}
	return goja.Undefined()
}

func (w *windowAccessor) find(typ string, fn goja.Value) int {
	for i, jl := range w.listeners {
		if jl.typ == typ && jl.fn.SameAs(fn) {
			return i
		}
	}
	return -1
}

func (w *windowAccessor) addEventListener(call goja.FunctionCall) goja.Value {
	typ := call.Argument(0).String()
	fnVal := call.Argument(1)
	fn, ok := goja.AssertFunction(fnVal)
	if !ok || w.find(typ, fnVal) >= 0 {
		return goja.Undefined()
	}
	vm := w.e.vm
	l := window.NewListener(func(ev window.Event) {
		evObj := vm.NewObject()
		evObj.Set("type", ev.Type)
		evObj.Set("scrollY", ev.ScrollY)
		w.e.invoke(fn, ev.Type+" listener", evObj)
	})
	w.listeners = append(w.listeners, jsListener{typ: typ, fn: fnVal, l: l})
	w.e.page.Window.AddEventListener(typ, l)
	return goja.Undefined()
}

func (w *windowAccessor) removeEventListener(call goja.FunctionCall) goja.Value {
	typ := call.Argument(0).String()
	i := w.find(typ, call.Argument(1))
	if i < 0 {
		return goja.Undefined()
	}
	w.e.page.Window.RemoveEventListener(typ, w.listeners[i].l)
	w.listeners = append(w.listeners[:i], w.listeners[i+1:]...)
	return goja.Undefined()
}

// setTimeout(fn, ms, ...args) arms a one-shot timer on the page's loop and
// returns its handle.
func (w *windowAccessor) setTimeout(call goja.FunctionCall) goja.Value {
	vm := w.e.vm
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(vm.NewTypeError("Failed to execute 'setTimeout': handler is not a function"))
	}
	ms := call.Argument(1).ToFloat()
	if math.IsNaN(ms) || ms < 0 {
		ms = 0
	}
	var args []goja.Value
	if len(call.Arguments) > 2 {
		args = append(args, call.Arguments[2:]...)
	}
	id := w.e.page.Window.SetTimeout(func() {
		w.e.invoke(fn, "setTimeout", args...)
	}, time.Duration(ms*float64(time.Millisecond)))
	return vm.ToValue(id)
}

func (w *windowAccessor) clearTimeout(call goja.FunctionCall) goja.Value {
	if id := call.Argument(0).ToInteger(); id > 0 {
		w.e.page.Window.ClearTimeout(int(id))
	}
	return goja.Undefined()
}
