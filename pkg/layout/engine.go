package layout

import (
	"strings"

	"lazyload/pkg/css"
	"lazyload/pkg/html"
)

// Replaced elements without an explicit size get the platform default
// object size.
const (
	PlaceholderWidth  = 300.0
	PlaceholderHeight = 150.0

	// Text is measured on a fixed 7x13 cell grid (the gg default face).
	CharWidth  = 7.0
	LineHeight = 18.0
)

type Box struct {
	Node     *html.Node
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Margin   css.BoxEdge
	Children []*Box
	Parent   *Box
	Lines    []TextLine // text runs painted inside this box
}

// TextLine is one painted fragment of a text node.
type TextLine struct {
	X, Y float64
	Text string
}

type LayoutEngine struct {
	viewport struct {
		width  float64
		height float64
	}
	cascade *css.Cascade
	styles  map[*html.Node]*css.Style
}

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	return le
}

// Layout computes boxes for every rendered element of doc. The returned
// Result answers geometry queries until the next Layout call.
func (le *LayoutEngine) Layout(doc *html.Document) *Result {
	le.cascade = css.NewCascade(doc, le.viewport.width)
	le.styles = make(map[*html.Node]*css.Style)
	res := &Result{boxes: make(map[*html.Node]*Box)}

	root := &Box{Node: doc.Root, Width: le.viewport.width}
	res.boxes[doc.Root] = root
	root.Height = le.layoutChildren(res, root, doc.Root.Children, 0, 0, le.viewport.width)
	res.Root = root
	res.height = root.Height
	return res
}

func (le *LayoutEngine) style(node *html.Node) *css.Style {
	if s, ok := le.styles[node]; ok {
		return s
	}
	s := le.cascade.ComputeStyle(node)
	le.styles[node] = s
	return s
}

func (le *LayoutEngine) isBlock(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	switch le.style(node).Display() {
	case "block", "flex", "grid", "list-item", "table":
		return true
	case "inline", "inline-block":
		return false
	}
	switch node.TagName {
	case "html", "body", "head", "center":
		return true
	}
	return html.IsBlockElement(node.TagName)
}

func (le *LayoutEngine) isHidden(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	if node.TagName == "head" || node.HasAttribute("hidden") {
		return true
	}
	return le.style(node).Display() == "none"
}

// layoutChildren places children of parent starting at y, stacking block
// boxes and flowing runs of inline content into line boxes. It returns
// the height consumed.
func (le *LayoutEngine) layoutChildren(res *Result, parent *Box, children []*html.Node, x, y, width float64) float64 {
	cursorY := y
	var run []*html.Node

	flush := func() {
		if len(run) == 0 {
			return
		}
		lb := newLineBuilder(le, res, parent, x, cursorY, width)
		for _, n := range run {
			lb.place(n)
		}
		cursorY = lb.finish()
		run = run[:0]
	}

	for _, child := range children {
		if le.isHidden(child) {
			continue
		}
		if !le.isBlock(child) {
			run = append(run, child)
			continue
		}
		flush()
		box := le.layoutBlock(res, parent, child, x, cursorY, width)
		cursorY = box.Y + box.Height + box.Margin.Bottom
	}
	flush()
	return cursorY - y
}

func (le *LayoutEngine) layoutBlock(res *Result, parent *Box, node *html.Node, x, y, width float64) *Box {
	style := le.style(node)
	margin := style.GetMargin()

	box := &Box{
		Node:   node,
		X:      x + margin.Left,
		Y:      y + margin.Top,
		Width:  width - margin.Left - margin.Right,
		Margin: margin,
		Parent: parent,
	}
	if w, ok := le.explicitSize(node, "width"); ok {
		box.Width = w
	}
	parent.Children = append(parent.Children, box)
	res.boxes[node] = box

	if node.TagName == "img" {
		box.Width, box.Height = le.imageSize(node)
		return box
	}

	contentHeight := le.layoutChildren(res, box, node.Children, box.X, box.Y, box.Width)
	if h, ok := le.explicitSize(node, "height"); ok {
		box.Height = h
	} else {
		box.Height = contentHeight
	}
	return box
}

// explicitSize reads a dimension from the computed style first, then from
// the presentational attribute of the same name.
func (le *LayoutEngine) explicitSize(node *html.Node, dim string) (float64, bool) {
	if v, ok := le.style(node).GetLength(dim); ok {
		return v, true
	}
	if attr, ok := node.GetAttribute(dim); ok {
		return css.ParseLength(attr)
	}
	return 0, false
}

func (le *LayoutEngine) imageSize(node *html.Node) (float64, float64) {
	w, ok := le.explicitSize(node, "width")
	if !ok {
		w = PlaceholderWidth
	}
	h, ok := le.explicitSize(node, "height")
	if !ok {
		h = PlaceholderHeight
	}
	return w, h
}

// lineBuilder flows inline content left to right, wrapping at width.
type lineBuilder struct {
	le         *LayoutEngine
	res        *Result
	parent     *Box
	left       float64
	width      float64
	lineY      float64
	cursorX    float64
	lineHeight float64
}

func newLineBuilder(le *LayoutEngine, res *Result, parent *Box, x, y, width float64) *lineBuilder {
	return &lineBuilder{le: le, res: res, parent: parent, left: x, width: width, lineY: y, cursorX: x}
}

func (lb *lineBuilder) used() float64 { return lb.cursorX - lb.left }

func (lb *lineBuilder) newLine() {
	h := lb.lineHeight
	if h == 0 {
		h = LineHeight
	}
	lb.lineY += h
	lb.cursorX = lb.left
	lb.lineHeight = 0
}

func (lb *lineBuilder) grow(h float64) {
	if h > lb.lineHeight {
		lb.lineHeight = h
	}
}

func (lb *lineBuilder) place(node *html.Node) {
	if node.Type == html.TextNode {
		lb.placeText(node)
		return
	}
	if lb.le.isHidden(node) {
		return
	}

	switch node.TagName {
	case "br":
		lb.grow(LineHeight)
		lb.newLine()
		return
	case "img":
		w, h := lb.le.imageSize(node)
		if lb.used() > 0 && lb.used()+w > lb.width {
			lb.newLine()
		}
		box := &Box{Node: node, X: lb.cursorX, Y: lb.lineY, Width: w, Height: h, Parent: lb.parent}
		lb.parent.Children = append(lb.parent.Children, box)
		lb.res.boxes[node] = box
		lb.cursorX += w
		lb.grow(h)
		return
	}

	if lb.le.isBlock(node) {
		// Block nested in inline content: break around it.
		if lb.used() > 0 || lb.lineHeight > 0 {
			lb.newLine()
		}
		box := lb.le.layoutBlock(lb.res, lb.parent, node, lb.left, lb.lineY, lb.width)
		lb.lineY = box.Y + box.Height + box.Margin.Bottom
		lb.cursorX = lb.left
		lb.lineHeight = 0
		return
	}

	// Inline element: its box starts where its first content lands.
	box := &Box{Node: node, X: lb.cursorX, Y: lb.lineY, Parent: lb.parent}
	lb.parent.Children = append(lb.parent.Children, box)
	lb.res.boxes[node] = box
	startY := lb.lineY
	for _, child := range node.Children {
		lb.place(child)
	}
	end := lb.lineY + lb.lineHeight
	if lb.lineHeight == 0 && lb.used() == 0 {
		end = lb.lineY
	}
	box.Height = end - startY
	if lb.lineY == startY {
		box.Width = lb.cursorX - box.X
	} else {
		box.X = lb.left
		box.Width = lb.width
	}
}

func (lb *lineBuilder) placeText(node *html.Node) {
	words := strings.Fields(node.Text)
	if len(words) == 0 {
		if lb.used() > 0 {
			lb.cursorX += CharWidth
		}
		return
	}
	if strings.HasPrefix(node.Text, " ") && lb.used() > 0 {
		lb.cursorX += CharWidth
	}

	var line strings.Builder
	lineX := lb.cursorX
	emit := func() {
		if line.Len() == 0 {
			return
		}
		lb.parent.Lines = append(lb.parent.Lines, TextLine{X: lineX, Y: lb.lineY, Text: line.String()})
		lb.grow(LineHeight)
		line.Reset()
	}

	for i, word := range words {
		w := float64(len(word)) * CharWidth
		if i > 0 {
			if lb.used()+CharWidth+w > lb.width {
				emit()
				lb.newLine()
				lineX = lb.cursorX
			} else {
				line.WriteByte(' ')
				lb.cursorX += CharWidth
			}
		} else if lb.used() > 0 && lb.used()+w > lb.width {
			lb.newLine()
			lineX = lb.cursorX
		}
		line.WriteString(word)
		lb.cursorX += w
	}
	emit()
	if strings.HasSuffix(node.Text, " ") {
		lb.cursorX += CharWidth
	}
}

// finish closes the last line and returns the y below it.
func (lb *lineBuilder) finish() float64 {
	if lb.lineHeight > 0 {
		return lb.lineY + lb.lineHeight
	}
	return lb.lineY
}
