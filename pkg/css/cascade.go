package css

import (
	"sort"

	"lazyload/pkg/html"
)

// Cascade computes element styles from a document's stylesheets for one
// viewport width.
type Cascade struct {
	rules []Rule
}

// NewCascade parses every stylesheet of doc, keeping the rules whose media
// query applies at viewportWidth.
func NewCascade(doc *html.Document, viewportWidth float64) *Cascade {
	c := &Cascade{}
	for _, text := range doc.Stylesheets {
		ss, err := ParseStylesheet(text)
		if err != nil {
			continue
		}
		for _, rule := range ss.Rules {
			if EvaluateMediaQuery(rule.Media, viewportWidth) {
				c.rules = append(c.rules, rule)
			}
		}
	}
	return c
}

// Len is the number of active rules.
func (c *Cascade) Len() int {
	return len(c.rules)
}

// ComputeStyle applies matching rules in specificity order, later rules
// winning ties, and then the inline style attribute.
func (c *Cascade) ComputeStyle(node *html.Node) *Style {
	style := NewStyle()
	if node.Type != html.ElementNode {
		return style
	}

	var matched []Rule
	for _, rule := range c.rules {
		if MatchesSelector(node, rule.Selector) {
			matched = append(matched, rule)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Specificity < matched[j].Specificity
	})
	for _, rule := range matched {
		for property, value := range rule.Declarations {
			style.Set(property, value)
		}
	}

	if attr, ok := node.GetAttribute("style"); ok {
		for property, value := range ParseInlineStyle(attr).Properties {
			style.Set(property, value)
		}
	}
	return style
}
