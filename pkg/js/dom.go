package js

import (
	"strings"

	"lazyload/pkg/html"
	"lazyload/pkg/page"

	"github.com/dop251/goja"
)

// domContext holds shared state for DOM bindings. It caches one proxy per
// *html.Node so the same JS object comes back for the same element, which
// keeps === comparisons meaningful.
type domContext struct {
	vm    *goja.Runtime
	page  *page.Page
	cache map[*html.Node]*goja.Object
}

// registerDocument sets up the global `document` object.
func registerDocument(vm *goja.Runtime, p *page.Page) *domContext {
	ctx := &domContext{vm: vm, page: p, cache: make(map[*html.Node]*goja.Object)}
	root := p.Doc.Root

	docObj := vm.NewObject()
	docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		node := p.GetElementByID(call.Arguments[0].String())
		if node == nil {
			return goja.Null()
		}
		return ctx.elementProxy(node)
	})
	docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(p.GetElementsByTagName(strings.ToLower(call.Arguments[0].String())))
	})
	docObj.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(elementsByClassName(root, call.Arguments[0].String()))
	})
	docObj.Set("querySelector", querySelectorFn(ctx, root))
	docObj.Set("querySelectorAll", querySelectorAllFn(ctx, root))
	docObj.DefineAccessorProperty("title", vm.ToValue(func() string {
		return p.Doc.Title
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	docObj.DefineAccessorProperty("body", vm.ToValue(func() goja.Value {
		var body *html.Node
		root.Walk(func(n *html.Node) bool {
			if n.TagName == "body" {
				body = n
				return true
			}
			return false
		})
		if body == nil {
			return goja.Null()
		}
		return ctx.elementProxy(body)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	vm.Set("document", docObj)
	return ctx
}

func elementsByClassName(root *html.Node, cls string) []*html.Node {
	var result []*html.Node
	root.Walk(func(n *html.Node) bool {
		if n != root && n.HasClass(cls) {
			result = append(result, n)
		}
		return false
	})
	return result
}

// elementArray creates a JS array of element proxies.
func (ctx *domContext) elementArray(nodes []*html.Node) goja.Value {
	items := make([]any, len(nodes))
	for i, n := range nodes {
		items[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(items...)
}

// elementProxy creates (or retrieves from cache) the JS object wrapping node.
func (ctx *domContext) elementProxy(node *html.Node) *goja.Object {
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = v
	return v
}

// unwrapNode extracts the *html.Node behind an element proxy, or nil.
func unwrapNode(val goja.Value) *html.Node {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return nil
	}
	if acc, ok := val.Export().(*elementAccessor); ok {
		return acc.node
	}
	return nil
}

// elementAccessor implements goja.DynamicObject for element proxies.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
}

var elementKeys = []string{
	"tagName", "nodeName", "id", "className", "src", "textContent", "offsetTop",
	"parentElement", "children",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"classList", "querySelector", "querySelectorAll", "matches",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm

	switch key {
	case "tagName", "nodeName":
		return vm.ToValue(strings.ToUpper(e.node.TagName))
	case "id":
		id, _ := e.node.GetAttribute("id")
		return vm.ToValue(id)
	case "className":
		cls, _ := e.node.GetAttribute("class")
		return vm.ToValue(cls)
	case "src":
		src, _ := e.node.GetAttribute("src")
		return vm.ToValue(src)
	case "textContent":
		return vm.ToValue(e.node.TextContent())
	case "offsetTop":
		return vm.ToValue(e.ctx.page.OffsetTop(e.node))
	case "parentElement":
		if p := e.node.Parent; p != nil && p.Type == html.ElementNode && p.TagName != "document" {
			return e.ctx.elementProxy(p)
		}
		return goja.Null()
	case "children":
		var elChildren []*html.Node
		for _, child := range e.node.Children {
			if child.Type == html.ElementNode {
				elChildren = append(elChildren, child)
			}
		}
		return e.ctx.elementArray(elChildren)
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return goja.Null()
			}
			val, ok := e.node.GetAttribute(strings.ToLower(call.Arguments[0].String()))
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setAttribute': 2 arguments required"))
			}
			e.node.SetAttribute(strings.ToLower(call.Arguments[0].String()), call.Arguments[1].String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			return vm.ToValue(e.node.HasAttribute(strings.ToLower(call.Arguments[0].String())))
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) > 0 {
				e.node.RemoveAttribute(strings.ToLower(call.Arguments[0].String()))
			}
			return goja.Undefined()
		})
	case "classList":
		return newClassListProxy(e.ctx, e.node)
	case "querySelector":
		return vm.ToValue(querySelectorFn(e.ctx, e.node))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(e.ctx, e.node))
	case "matches":
		return vm.ToValue(matchesFn(e.ctx, e.node))
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "id":
		e.node.SetAttribute("id", val.String())
		return true
	case "className":
		e.node.SetAttribute("class", val.String())
		return true
	case "src":
		e.node.SetAttribute("src", val.String())
		return true
	case "textContent":
		e.node.Children = nil
		e.node.AppendText(val.String())
		return true
	}
	return false
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool {
	return false
}

func (e *elementAccessor) Keys() []string {
	return elementKeys
}
