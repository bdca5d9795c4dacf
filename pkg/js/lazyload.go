package js

import (
	"errors"
	"fmt"
	"math"
	"time"

	"lazyload/pkg/html"
	"lazyload/pkg/lazyload"

	"github.com/dop251/goja"
)

var errNotElementList = errors.New("images must be an array of elements")

// registerLazyImageLoad installs `new LazyImageLoad(options)`. The options
// object takes images, offset, loadDelay (ms), loadedClass, showStats and
// attribute; anything missing falls back to the loader defaults.
func registerLazyImageLoad(e *Engine) {
	e.vm.Set("LazyImageLoad", func(call goja.ConstructorCall) *goja.Object {
		vm := e.vm
		opts, err := e.loaderOptions(call.Argument(0))
		if err != nil {
			panic(vm.NewTypeError("Failed to construct 'LazyImageLoad': " + err.Error()))
		}
		l := lazyload.New(e.page, e.page.Window, opts)
		e.loaders = append(e.loaders, l)

		obj := call.This
		obj.Set("scanAndLoad", func() int { return l.ScanAndLoad() })
		obj.Set("isDone", l.IsDone)
		obj.Set("unsubscribe", l.Unsubscribe)
		obj.Set("stats", func() goja.Value {
			s := l.Stats()
			st := vm.NewObject()
			st.Set("totalImages", s.TotalImages)
			st.Set("totalImagesLoaded", s.TotalImagesLoaded)
			st.Set("offset", s.Offset)
			st.Set("loadDelay", s.LoadDelay.Milliseconds())
			st.Set("timeout_id", s.TimeoutID)
			return st
		})
		getter := func(name string, fn any) {
			obj.DefineAccessorProperty(name, vm.ToValue(fn), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
		}
		getter("loadedCounter", l.Loaded)
		getter("imageCounter", l.Total)
		getter("offset", l.Offset)
		getter("loadDelay", func() int64 { return l.LoadDelay().Milliseconds() })
		getter("state", func() string { return l.State().String() })
		return nil
	})
}

func (e *Engine) loaderOptions(v goja.Value) (lazyload.Options, error) {
	opts := lazyload.Options{Logger: e.logger}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return opts, nil
	}
	obj := v.ToObject(e.vm)

	if imgs := obj.Get("images"); present(imgs) {
		nodes, err := e.elementList(imgs)
		if err != nil {
			return opts, err
		}
		opts.Images = nodes
	}
	if off := obj.Get("offset"); present(off) {
		if f := off.ToFloat(); !math.IsNaN(f) {
			opts.Offset = f
		}
	}
	if d := obj.Get("loadDelay"); present(d) {
		if ms := d.ToFloat(); !math.IsNaN(ms) && ms > 0 {
			opts.LoadDelay = time.Duration(ms * float64(time.Millisecond))
		}
	}
	if c := obj.Get("loadedClass"); present(c) {
		opts.LoadedClass = c.String()
	}
	if a := obj.Get("attribute"); present(a) {
		opts.Attribute = a.String()
	}
	if s := obj.Get("showStats"); present(s) {
		opts.ShowStats = s.ToBoolean()
	}
	return opts, nil
}

// elementList converts an array-like of element proxies. The result is
// never nil, so an empty array stays an explicit empty set.
func (e *Engine) elementList(v goja.Value) ([]*html.Node, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, errNotElementList
	}
	length := obj.Get("length")
	if !present(length) {
		return nil, errNotElementList
	}
	n := int(length.ToInteger())
	nodes := make([]*html.Node, 0, n)
	for i := 0; i < n; i++ {
		item := obj.Get(fmt.Sprint(i))
		node := unwrapNode(item)
		if node == nil {
			return nil, fmt.Errorf("images[%d] is not an element", i)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func present(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}
