package css

import (
	"strings"
	"unicode"
)

// Rule is one selector of a style rule with its declarations. A rule
// written with a selector list becomes one Rule per selector so each keeps
// its own specificity.
type Rule struct {
	Selector     Selector
	Specificity  int
	Declarations map[string]string // longhand property -> value
	Media        string            // enclosing @media query, "" when none
}

// Stylesheet is the rules of one <style> block in source order.
type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses CSS text. Malformed rules, unknown at-rules and
// invalid declarations are dropped, never reported.
func ParseStylesheet(text string) (*Stylesheet, error) {
	ss := &Stylesheet{Rules: make([]Rule, 0)}
	ss.parseBlock(stripCSSComments(text), "")
	return ss, nil
}

func (ss *Stylesheet) parseBlock(text, media string) {
	for _, ruleStr := range splitRules(text) {
		prelude, body, ok := cutBlock(ruleStr)
		if !ok {
			continue
		}
		if strings.HasPrefix(prelude, "@") {
			name, query := atRule(prelude)
			if name == "media" && media == "" {
				ss.parseBlock(body, query)
			}
			continue
		}
		if !isValidSelector(prelude) {
			continue
		}
		group, err := ParseSelectorGroup(prelude)
		if err != nil {
			continue
		}
		decls := parseDeclarations(body)
		for _, sel := range group {
			ss.Rules = append(ss.Rules, Rule{
				Selector:     sel,
				Specificity:  Specificity(sel),
				Declarations: decls,
				Media:        media,
			})
		}
	}
}

// atRule splits "@media screen" into its lowercased name and the rest.
func atRule(prelude string) (name, rest string) {
	rest = prelude[1:]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == '(' || unicode.IsSpace(r)
	})
	if end < 0 {
		return strings.ToLower(rest), ""
	}
	return strings.ToLower(rest[:end]), strings.TrimSpace(rest[end:])
}

// stripCSSComments removes /* */ comments outside string literals. An
// unterminated comment runs to the end of the input.
func stripCSSComments(css string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(css); i++ {
		c := css[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(css) {
				i++
				b.WriteByte(css[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(css) && css[i+1] == '*' {
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				break
			}
			i += end + 3
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// splitRules splits CSS into top-level rules, each ending at the brace that
// closes its block. Text after the last closed block is discarded, as is a
// stray closing brace.
func splitRules(css string) []string {
	rules := make([]string, 0)
	depth := 0
	start := 0
	var quote byte

	for i := 0; i < len(css); i++ {
		ch := css[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote || ch == '\n' {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case ';':
			// A block-less at-rule such as @import ends at ';'.
			if depth == 0 && strings.HasPrefix(strings.TrimSpace(css[start:i]), "@") {
				start = i + 1
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				start = i + 1
				continue
			}
			depth--
			if depth == 0 {
				if ruleStr := strings.TrimSpace(css[start : i+1]); ruleStr != "" {
					rules = append(rules, ruleStr)
				}
				start = i + 1
			}
		}
	}
	return rules
}

// cutBlock splits "prelude { body }" into its trimmed parts.
func cutBlock(ruleStr string) (prelude, body string, ok bool) {
	open := strings.IndexByte(ruleStr, '{')
	if open < 0 || !strings.HasSuffix(ruleStr, "}") {
		return "", "", false
	}
	return strings.TrimSpace(ruleStr[:open]), ruleStr[open+1 : len(ruleStr)-1], true
}

// isValidSelector rejects preludes that cannot be a selector list before
// they reach the selector parser.
func isValidSelector(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "{};") {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// parseDeclarations parses a declaration block into longhand properties.
func parseDeclarations(declStr string) map[string]string {
	declarations := make(map[string]string)
	for _, part := range strings.Split(declStr, ";") {
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if !isValidProperty(property) || value == "" {
			continue
		}
		if property == "margin" {
			style := NewStyle()
			expandBoxProperty(style, "margin", value)
			for k, v := range style.Properties {
				declarations[k] = v
			}
			continue
		}
		declarations[property] = value
	}
	return declarations
}

func isValidProperty(p string) bool {
	if p == "" {
		return false
	}
	c := p[0]
	if c != '-' && (c < 'a' || c > 'z') {
		return false
	}
	for i := 0; i < len(p); i++ {
		if !isIdentChar(p[i]) {
			return false
		}
	}
	return true
}

// Specificity scores a selector: 100 per id, 10 per class or attribute,
// 1 per type selector.
func Specificity(sel Selector) int {
	score := 0
	for _, part := range sel.Parts {
		if part.ID != "" {
			score += 100
		}
		score += 10 * (len(part.Classes) + len(part.Attributes))
		if part.Element != "" && part.Element != "*" {
			score++
		}
	}
	return score
}

// EvaluateMediaQuery reports whether a media query list applies to a
// screen of the given width. It understands media types and min-width /
// max-width features in px; anything else does not match.
func EvaluateMediaQuery(query string, viewportWidth float64) bool {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return true
	}
	for _, q := range strings.Split(query, ",") {
		if evaluateMediaQuery(strings.TrimSpace(q), viewportWidth) {
			return true
		}
	}
	return false
}

func evaluateMediaQuery(q string, width float64) bool {
	q = strings.TrimPrefix(q, "only ")
	for _, term := range strings.Split(q, " and ") {
		term = strings.TrimSpace(term)
		switch term {
		case "all", "screen":
			continue
		case "":
			return false
		}
		if !strings.HasPrefix(term, "(") || !strings.HasSuffix(term, ")") {
			return false
		}
		feature, value, ok := strings.Cut(term[1:len(term)-1], ":")
		if !ok {
			return false
		}
		px, ok := ParseLength(value)
		if !ok {
			return false
		}
		switch strings.TrimSpace(feature) {
		case "min-width":
			if width < px {
				return false
			}
		case "max-width":
			if width > px {
				return false
			}
		default:
			return false
		}
	}
	return true
}
