package js

import (
	"fmt"
	"log/slog"

	"lazyload/pkg/lazyload"
	"lazyload/pkg/page"

	"github.com/dop251/goja"
)

// Engine executes JavaScript against a page's DOM and window. Like the
// page, it must only be used from the goroutine driving the page's loop:
// timer and listener callbacks re-enter the same goja runtime.
type Engine struct {
	vm     *goja.Runtime
	page   *page.Page
	logger *slog.Logger

	loaders []*lazyload.Loader
}

type Option func(*Engine)

// WithLogger routes console output, callback errors and loader stats.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates a goja runtime with console, document, window, timers and
// the LazyImageLoad constructor bound to p.
func New(p *page.Page, opts ...Option) *Engine {
	e := &Engine{vm: goja.New(), page: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}

	c := &consoleAPI{logger: e.logger}
	c.register(e.vm)
	registerDocument(e.vm, p)
	registerWindow(e)
	registerLazyImageLoad(e)
	return e
}

// Execute runs the page's scripts in document order and stops at the
// first one that throws.
func (e *Engine) Execute() error {
	for i, script := range e.page.Doc.Scripts {
		if _, err := e.vm.RunString(script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return nil
}

// RunString evaluates src in the page's global scope.
func (e *Engine) RunString(src string) (goja.Value, error) {
	return e.vm.RunString(src)
}

// Loaders returns the loaders constructed by scripts, in creation order.
func (e *Engine) Loaders() []*lazyload.Loader {
	return e.loaders
}

// invoke calls a script function from a timer or event. Exceptions are
// logged; there is no script frame to propagate them to.
func (e *Engine) invoke(fn goja.Callable, what string, args ...goja.Value) {
	if _, err := fn(goja.Undefined(), args...); err != nil {
		e.logger.Error("js: uncaught exception", "in", what, "error", err)
	}
}
