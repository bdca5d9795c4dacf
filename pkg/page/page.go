// Package page binds a parsed document to its layout and window.
package page

import (
	"fmt"

	"lazyload/pkg/css"
	"lazyload/pkg/eventloop"
	"lazyload/pkg/html"
	"lazyload/pkg/layout"
	"lazyload/pkg/window"
)

// Page is one loaded document in one window. Like the window, it belongs to
// the goroutine driving its event loop.
type Page struct {
	Doc    *html.Document
	Window *window.Window
	Loop   *eventloop.Loop

	layout *layout.Result
}

// New lays doc out for a width×height viewport and sizes the window's
// scroll range to the document.
func New(doc *html.Document, loop *eventloop.Loop, width, height float64) *Page {
	p := &Page{
		Doc:    doc,
		Window: window.New(loop, width, height),
		Loop:   loop,
	}
	p.Relayout()
	p.Window.AddEventListener(window.EventResize, window.NewListener(func(window.Event) {
		p.Relayout()
	}))
	return p
}

// Relayout recomputes geometry. Call it after structural DOM changes.
func (p *Page) Relayout() {
	le := layout.NewLayoutEngine(p.Window.InnerWidth(), p.Window.InnerHeight())
	p.layout = le.Layout(p.Doc)
	p.Window.SetScrollHeight(p.layout.Height())
}

func (p *Page) Layout() *layout.Result {
	return p.layout
}

// OffsetTop is node's distance from the top of the document.
func (p *Page) OffsetTop(node *html.Node) float64 {
	return p.layout.OffsetTop(node)
}

// QuerySelectorAll returns matching elements in document order.
func (p *Page) QuerySelectorAll(selector string) ([]*html.Node, error) {
	group, err := css.ParseSelectorGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("querySelectorAll: %w", err)
	}
	return css.QuerySelectorAll(p.Doc.Root, group), nil
}

// QuerySelector returns the first match, or nil.
func (p *Page) QuerySelector(selector string) (*html.Node, error) {
	group, err := css.ParseSelectorGroup(selector)
	if err != nil {
		return nil, fmt.Errorf("querySelector: %w", err)
	}
	return css.QuerySelector(p.Doc.Root, group), nil
}

// GetElementByID returns the first element with the given id, or nil.
func (p *Page) GetElementByID(id string) *html.Node {
	var found *html.Node
	p.Doc.Root.Walk(func(n *html.Node) bool {
		if v, ok := n.GetAttribute("id"); ok && v == id {
			found = n
			return true
		}
		return false
	})
	return found
}

// GetElementsByTagName returns elements with the tag, in document order.
func (p *Page) GetElementsByTagName(tag string) []*html.Node {
	var nodes []*html.Node
	p.Doc.Root.Walk(func(n *html.Node) bool {
		if n != p.Doc.Root && (tag == "*" || n.TagName == tag) {
			nodes = append(nodes, n)
		}
		return false
	})
	return nodes
}
