package js

import (
	"lazyload/pkg/css"
	"lazyload/pkg/html"

	"github.com/dop251/goja"
)

// parseSelectors parses a selector argument or throws a SyntaxError into
// the calling script, as browsers do for malformed selectors.
func (ctx *domContext) parseSelectors(method string, call goja.FunctionCall) []css.Selector {
	if len(call.Arguments) == 0 {
		panic(ctx.vm.NewTypeError("Failed to execute '" + method + "': 1 argument required"))
	}
	group, err := css.ParseSelectorGroup(call.Arguments[0].String())
	if err != nil {
		ctor, ok := goja.AssertConstructor(ctx.vm.Get("SyntaxError"))
		if !ok {
			panic(ctx.vm.NewGoError(err))
		}
		exc, cerr := ctor(nil, ctx.vm.ToValue("Failed to execute '"+method+"': "+err.Error()))
		if cerr != nil {
			panic(ctx.vm.NewGoError(err))
		}
		panic(exc)
	}
	return group
}

// querySelectorFn returns a JS function implementing querySelector.
func querySelectorFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		group := ctx.parseSelectors("querySelector", call)
		if n := css.QuerySelector(root, group); n != nil {
			return ctx.elementProxy(n)
		}
		return goja.Null()
	}
}

// querySelectorAllFn returns a JS function implementing querySelectorAll.
// The result is a static snapshot.
func querySelectorAllFn(ctx *domContext, root *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		group := ctx.parseSelectors("querySelectorAll", call)
		return ctx.elementArray(css.QuerySelectorAll(root, group))
	}
}

// matchesFn returns a JS function implementing element.matches(selector).
func matchesFn(ctx *domContext, node *html.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		group := ctx.parseSelectors("matches", call)
		return ctx.vm.ToValue(css.MatchesAny(node, group))
	}
}
