package css

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is wrapped by every selector parse failure.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector is a complex selector: compound parts joined by combinators.
// Combinators[i] sits between Parts[i] and Parts[i+1].
type Selector struct {
	Raw         string
	Parts       []SelectorPart
	Combinators []Combinator
}

// SelectorPart is one compound selector, e.g. img.hero[dataset].
type SelectorPart struct {
	Element    string // "" or "*" matches any tag
	ID         string
	Classes    []string
	Attributes []AttributeSelector
}

type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "^=", "$=", "*=", "~=", "|="
	Value    string
}

type Combinator int

const (
	DescendantCombinator Combinator = iota // a b
	ChildCombinator                        // a > b
)

// ParseSelectorGroup parses a comma-separated selector list.
func ParseSelectorGroup(group string) ([]Selector, error) {
	var selectors []Selector
	for _, raw := range splitTopLevel(group, ',') {
		sel, err := ParseSelector(raw)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	return selectors, nil
}

// ParseSelector parses a single complex selector.
func ParseSelector(raw string) (Selector, error) {
	sel := Selector{Raw: strings.TrimSpace(raw)}
	p := &selectorParser{input: sel.Raw}

	pendingCombinator := DescendantCombinator
	for {
		sawSpace := p.skipSpace()
		if p.done() {
			break
		}
		if p.peek() == '>' {
			if len(sel.Parts) == 0 {
				return Selector{}, p.errorf("leading combinator")
			}
			p.pos++
			p.skipSpace()
			pendingCombinator = ChildCombinator
			sawSpace = true
		}
		if len(sel.Parts) > 0 {
			if !sawSpace {
				return Selector{}, p.errorf("unexpected %q", p.peek())
			}
			sel.Combinators = append(sel.Combinators, pendingCombinator)
		}
		part, err := p.parseCompound()
		if err != nil {
			return Selector{}, err
		}
		sel.Parts = append(sel.Parts, part)
		pendingCombinator = DescendantCombinator
	}

	if len(sel.Parts) == 0 {
		return Selector{}, fmt.Errorf("%w: empty selector", ErrInvalidSelector)
	}
	if len(sel.Combinators) != len(sel.Parts)-1 {
		return Selector{}, p.errorf("dangling combinator")
	}
	return sel, nil
}

type selectorParser struct {
	input string
	pos   int
}

func (p *selectorParser) done() bool { return p.pos >= len(p.input) }

func (p *selectorParser) peek() byte { return p.input[p.pos] }

func (p *selectorParser) skipSpace() bool {
	start := p.pos
	for !p.done() && isSpace(p.peek()) {
		p.pos++
	}
	return p.pos > start
}

func (p *selectorParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q at %d: %s", ErrInvalidSelector, p.input, p.pos, fmt.Sprintf(format, args...))
}

func (p *selectorParser) parseCompound() (SelectorPart, error) {
	var part SelectorPart
	start := p.pos

	if !p.done() && p.peek() == '*' {
		part.Element = "*"
		p.pos++
	} else if name := p.readIdent(); name != "" {
		part.Element = strings.ToLower(name)
	}

	for !p.done() {
		switch c := p.peek(); c {
		case '#':
			p.pos++
			if part.ID = p.readIdent(); part.ID == "" {
				return part, p.errorf("expected id after '#'")
			}
		case '.':
			p.pos++
			cls := p.readIdent()
			if cls == "" {
				return part, p.errorf("expected class after '.'")
			}
			part.Classes = append(part.Classes, cls)
		case '[':
			attr, err := p.parseAttribute()
			if err != nil {
				return part, err
			}
			part.Attributes = append(part.Attributes, attr)
		default:
			if isSpace(c) || c == '>' {
				if p.pos == start {
					return part, p.errorf("expected selector")
				}
				return part, nil
			}
			return part, p.errorf("unexpected %q", c)
		}
	}
	if p.pos == start {
		return part, p.errorf("expected selector")
	}
	return part, nil
}

func (p *selectorParser) parseAttribute() (AttributeSelector, error) {
	p.pos++ // '['
	p.skipSpace()
	var attr AttributeSelector
	if attr.Name = strings.ToLower(p.readIdent()); attr.Name == "" {
		return attr, p.errorf("expected attribute name")
	}
	p.skipSpace()
	if p.done() {
		return attr, p.errorf("unterminated attribute selector")
	}
	if p.peek() == ']' {
		p.pos++
		return attr, nil
	}

	switch c := p.peek(); c {
	case '=':
		attr.Operator = "="
		p.pos++
	case '^', '$', '*', '~', '|':
		if p.pos+1 >= len(p.input) || p.input[p.pos+1] != '=' {
			return attr, p.errorf("bad attribute operator")
		}
		attr.Operator = string(c) + "="
		p.pos += 2
	default:
		return attr, p.errorf("bad attribute operator")
	}
	p.skipSpace()

	if p.done() {
		return attr, p.errorf("expected attribute value")
	}
	if q := p.peek(); q == '"' || q == '\'' {
		end := strings.IndexByte(p.input[p.pos+1:], q)
		if end < 0 {
			return attr, p.errorf("unterminated string")
		}
		attr.Value = p.input[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
	} else {
		attr.Value = p.readIdent()
	}
	p.skipSpace()
	if p.done() || p.peek() != ']' {
		return attr, p.errorf("expected ']'")
	}
	p.pos++
	return attr, nil
}

func (p *selectorParser) readIdent() string {
	start := p.pos
	for !p.done() && isIdentChar(p.peek()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c >= 0x80
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// splitTopLevel splits s on sep outside of brackets and quotes.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])

	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
