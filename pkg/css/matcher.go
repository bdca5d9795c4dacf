package css

import (
	"strings"

	"lazyload/pkg/html"
)

// MatchesSelector reports whether node matches the complex selector.
// Matching runs right to left, starting from the target element.
func MatchesSelector(node *html.Node, selector Selector) bool {
	if node.Type != html.ElementNode || isDocumentNode(node) {
		return false
	}
	if len(selector.Parts) == 0 {
		return false
	}
	return matchesFrom(node, selector, len(selector.Parts)-1)
}

// MatchesAny reports whether node matches any selector of a group.
func MatchesAny(node *html.Node, group []Selector) bool {
	for _, sel := range group {
		if MatchesSelector(node, sel) {
			return true
		}
	}
	return false
}

func matchesFrom(node *html.Node, selector Selector, partIndex int) bool {
	if !matchesSelectorPart(node, selector.Parts[partIndex]) {
		return false
	}
	if partIndex == 0 {
		return true
	}

	switch selector.Combinators[partIndex-1] {
	case DescendantCombinator:
		for ancestor := node.Parent; ancestor != nil && !isDocumentNode(ancestor); ancestor = ancestor.Parent {
			if matchesFrom(ancestor, selector, partIndex-1) {
				return true
			}
		}
	case ChildCombinator:
		if node.Parent != nil && !isDocumentNode(node.Parent) {
			return matchesFrom(node.Parent, selector, partIndex-1)
		}
	}
	return false
}

func matchesSelectorPart(node *html.Node, part SelectorPart) bool {
	if part.Element != "" && part.Element != "*" && node.TagName != part.Element {
		return false
	}
	if part.ID != "" {
		if id, ok := node.GetAttribute("id"); !ok || id != part.ID {
			return false
		}
	}
	for _, cls := range part.Classes {
		if !node.HasClass(cls) {
			return false
		}
	}
	for _, attr := range part.Attributes {
		if !matchesAttributeSelector(node, attr) {
			return false
		}
	}
	return true
}

func matchesAttributeSelector(node *html.Node, attr AttributeSelector) bool {
	value, ok := node.GetAttribute(attr.Name)
	if !ok {
		return false
	}

	switch attr.Operator {
	case "":
		return true
	case "=":
		return value == attr.Value
	case "^=":
		return attr.Value != "" && strings.HasPrefix(value, attr.Value)
	case "$=":
		return attr.Value != "" && strings.HasSuffix(value, attr.Value)
	case "*=":
		return attr.Value != "" && strings.Contains(value, attr.Value)
	case "~=":
		for _, word := range strings.Fields(value) {
			if word == attr.Value {
				return true
			}
		}
		return false
	case "|=":
		return value == attr.Value || strings.HasPrefix(value, attr.Value+"-")
	}
	return false
}

func isDocumentNode(n *html.Node) bool {
	return n.Parent == nil && n.TagName == "document"
}

// QuerySelectorAll returns the descendants of root matching the group, in
// document order. root itself is never included.
func QuerySelectorAll(root *html.Node, group []Selector) []*html.Node {
	var results []*html.Node
	root.Walk(func(n *html.Node) bool {
		if n != root && MatchesAny(n, group) {
			results = append(results, n)
		}
		return false
	})
	return results
}

// QuerySelector returns the first match below root, or nil.
func QuerySelector(root *html.Node, group []Selector) *html.Node {
	var result *html.Node
	root.Walk(func(n *html.Node) bool {
		if n != root && MatchesAny(n, group) {
			result = n
			return true
		}
		return false
	})
	return result
}
