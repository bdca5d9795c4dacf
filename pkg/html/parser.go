package html

import (
	"fmt"
	"strings"
)

type Parser struct {
	tokenizer *Tokenizer
	doc       *Document
	stack     []*Node
	rawTarget string // "script", "title" or "style" while collecting their text
}

func NewParser(html string) *Parser {
	return &Parser{
		tokenizer: NewTokenizer(html),
		doc:       NewDocument(),
	}
}

func (p *Parser) Parse() (*Document, error) {
	p.stack = []*Node{p.doc.Root}

	for {
		token, err := p.tokenizer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		if token.Type == TokenEOF {
			break
		}

		switch token.Type {
		case TokenStartTag:
			switch token.TagName {
			case "script", "title", "style":
				// Kept out of the tree; their text goes to the Document.
				p.rawTarget = token.TagName
				continue
			}

			if IsBlockElement(token.TagName) {
				p.autoCloseP()
			}

			node := &Node{
				Type:       ElementNode,
				TagName:    token.TagName,
				Attributes: token.Attributes,
				Children:   make([]*Node, 0),
			}
			p.currentParent().AddChild(node)

			if !IsVoidElement(token.TagName) && !token.SelfClosing {
				p.stack = append(p.stack, node)
			}

		case TokenText:
			switch p.rawTarget {
			case "script":
				p.doc.Scripts = append(p.doc.Scripts, token.Text)
				continue
			case "title":
				p.doc.Title = strings.TrimSpace(token.Text)
				continue
			case "style":
				p.doc.Stylesheets = append(p.doc.Stylesheets, token.Text)
				continue
			}
			p.currentParent().AppendText(token.Text)

		case TokenEndTag:
			if p.rawTarget != "" && token.TagName == p.rawTarget {
				p.rawTarget = ""
				continue
			}
			p.closeTag(token.TagName)
		}
	}

	return p.doc, nil
}

func (p *Parser) currentParent() *Node {
	if len(p.stack) == 0 {
		return p.doc.Root
	}
	return p.stack[len(p.stack)-1]
}

// closeTag pops the stack until the matching tag is closed. Stray end
// tags are ignored.
func (p *Parser) closeTag(tagName string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == tagName {
			p.stack = p.stack[:i]
			return
		}
	}
}

// autoCloseP closes an open <p> unless a block container sits above it.
func (p *Parser) autoCloseP() {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == "p" {
			p.stack = p.stack[:i]
			return
		}
		if IsBlockElement(p.stack[i].TagName) {
			return
		}
	}
}

// IsBlockElement reports whether tagName is laid out as a block box.
func IsBlockElement(tagName string) bool {
	switch tagName {
	case "address", "article", "aside", "blockquote", "details", "dialog",
		"dd", "div", "dl", "dt", "fieldset", "figcaption", "figure",
		"footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
		"header", "hgroup", "hr", "li", "main", "nav", "ol",
		"p", "pre", "section", "table", "ul":
		return true
	}
	return false
}

func Parse(html string) (*Document, error) {
	return NewParser(html).Parse()
}
