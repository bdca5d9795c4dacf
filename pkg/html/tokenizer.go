package html

import (
	"fmt"
	gohtml "html"
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenStartTag TokenType = iota
	TokenEndTag
	TokenText
	TokenEOF
)

type Token struct {
	Type        TokenType
	TagName     string
	Attributes  map[string]string
	Text        string
	SelfClosing bool // <img ... />
}

// Tokenizer splits markup into start tags, end tags and text runs.
// Comments, doctypes and processing instructions are dropped.
// The bodies of raw text elements (script, style, textarea) are
// returned as a single unescaped text token.
type Tokenizer struct {
	input   string
	pos     int
	rawTag  string // set after a raw text start tag was emitted
	pending []Token
}

func NewTokenizer(html string) *Tokenizer {
	return &Tokenizer{input: html}
}

func (t *Tokenizer) NextToken() (Token, error) {
	if len(t.pending) > 0 {
		tok := t.pending[0]
		t.pending = t.pending[1:]
		return tok, nil
	}
	if t.rawTag != "" {
		tag := t.rawTag
		t.rawTag = ""
		body := t.readRawUntil(tag)
		t.pending = append(t.pending, Token{Type: TokenEndTag, TagName: tag})
		if body == "" {
			return t.NextToken()
		}
		return Token{Type: TokenText, Text: body}, nil
	}

	for t.pos < len(t.input) {
		if t.input[t.pos] != '<' {
			if tok, ok := t.readText(); ok {
				return tok, nil
			}
			continue
		}
		if t.skipMarkupDeclaration() {
			continue
		}
		return t.readTag()
	}
	return Token{Type: TokenEOF}, nil
}

// skipMarkupDeclaration consumes <!-- -->, <!DOCTYPE> and <? ?> constructs.
// Reports whether anything was consumed.
func (t *Tokenizer) skipMarkupDeclaration() bool {
	rest := t.input[t.pos:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		end := strings.Index(rest[4:], "-->")
		if end < 0 {
			t.pos = len(t.input)
		} else {
			t.pos += 4 + end + 3
		}
		return true
	case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			t.pos = len(t.input)
		} else {
			t.pos += end + 1
		}
		return true
	}
	return false
}

func (t *Tokenizer) readTag() (Token, error) {
	t.pos++ // '<'

	isEndTag := false
	if t.pos < len(t.input) && t.input[t.pos] == '/' {
		isEndTag = true
		t.pos++
	}
	tagName := t.readTagName()
	if tagName == "" {
		return Token{}, fmt.Errorf("expected tag name at position %d", t.pos)
	}
	if isEndTag {
		if err := t.skipTo('>'); err != nil {
			return Token{}, err
		}
		t.pos++
		return Token{Type: TokenEndTag, TagName: tagName}, nil
	}

	tok := Token{Type: TokenStartTag, TagName: tagName, Attributes: make(map[string]string)}
	for {
		t.skipWhitespace()
		if t.pos >= len(t.input) {
			return Token{}, fmt.Errorf("unexpected EOF in <%s>", tagName)
		}
		c := t.input[t.pos]
		if c == '>' {
			t.pos++
			break
		}
		if c == '/' {
			t.pos++
			t.skipWhitespace()
			if t.pos < len(t.input) && t.input[t.pos] == '>' {
				t.pos++
				tok.SelfClosing = true
				return tok, nil
			}
			continue
		}
		name, value, err := t.readAttribute()
		if err != nil {
			return Token{}, err
		}
		if _, dup := tok.Attributes[name]; !dup {
			tok.Attributes[name] = value
		}
	}

	if isRawTextElement(tagName) {
		t.rawTag = tagName
	}
	return tok, nil
}

func (t *Tokenizer) readTagName() string {
	start := t.pos
	for t.pos < len(t.input) && isTagNameChar(t.input[t.pos]) {
		t.pos++
	}
	return strings.ToLower(t.input[start:t.pos])
}

func (t *Tokenizer) readAttribute() (string, string, error) {
	start := t.pos
	for t.pos < len(t.input) && isAttributeNameChar(t.input[t.pos]) {
		t.pos++
	}
	name := strings.ToLower(t.input[start:t.pos])
	if name == "" {
		return "", "", fmt.Errorf("expected attribute name at position %d", t.pos)
	}
	t.skipWhitespace()
	if t.pos >= len(t.input) || t.input[t.pos] != '=' {
		return name, "", nil
	}
	t.pos++
	t.skipWhitespace()
	value, err := t.readAttributeValue()
	if err != nil {
		return "", "", err
	}
	return name, gohtml.UnescapeString(value), nil
}

func (t *Tokenizer) readAttributeValue() (string, error) {
	if t.pos >= len(t.input) {
		return "", fmt.Errorf("expected attribute value at position %d", t.pos)
	}
	quote := t.input[t.pos]
	if quote == '"' || quote == '\'' {
		t.pos++
		end := strings.IndexByte(t.input[t.pos:], quote)
		if end < 0 {
			return "", fmt.Errorf("unterminated attribute value")
		}
		value := t.input[t.pos : t.pos+end]
		t.pos += end + 1
		return value, nil
	}
	start := t.pos
	for t.pos < len(t.input) && !unicode.IsSpace(rune(t.input[t.pos])) && t.input[t.pos] != '>' {
		t.pos++
	}
	return t.input[start:t.pos], nil
}

// readText returns the text run up to the next '<'. Runs made only of
// whitespace are dropped and ok is false.
func (t *Tokenizer) readText() (Token, bool) {
	end := strings.IndexByte(t.input[t.pos:], '<')
	if end < 0 {
		end = len(t.input) - t.pos
	}
	raw := t.input[t.pos : t.pos+end]
	t.pos += end
	if strings.TrimSpace(raw) == "" {
		return Token{}, false
	}
	return Token{Type: TokenText, Text: gohtml.UnescapeString(normalizeWhitespace(raw))}, true
}

// normalizeWhitespace collapses whitespace runs to one space and keeps a
// single space at either edge so inline neighbours stay separated.
func normalizeWhitespace(s string) string {
	hasLeading := unicode.IsSpace(rune(s[0]))
	hasTrailing := unicode.IsSpace(rune(s[len(s)-1]))

	result := strings.Join(strings.Fields(s), " ")
	if hasLeading {
		result = " " + result
	}
	if hasTrailing {
		result += " "
	}
	return result
}

func (t *Tokenizer) skipWhitespace() {
	for t.pos < len(t.input) && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

func (t *Tokenizer) skipTo(target byte) error {
	idx := strings.IndexByte(t.input[t.pos:], target)
	if idx < 0 {
		t.pos = len(t.input)
		return fmt.Errorf("expected '%c' but reached EOF", target)
	}
	t.pos += idx
	return nil
}

// readRawUntil consumes everything up to the case-insensitive </tag> and
// the end tag itself. An unterminated element swallows the rest of input.
func (t *Tokenizer) readRawUntil(tag string) string {
	needle := "</" + tag
	lower := strings.ToLower(t.input[t.pos:])
	idx := strings.Index(lower, needle)
	if idx < 0 {
		content := t.input[t.pos:]
		t.pos = len(t.input)
		return content
	}
	content := t.input[t.pos : t.pos+idx]
	t.pos += idx
	if gt := strings.IndexByte(t.input[t.pos:], '>'); gt >= 0 {
		t.pos += gt + 1
	} else {
		t.pos = len(t.input)
	}
	return content
}

func isRawTextElement(tag string) bool {
	switch tag {
	case "script", "style", "textarea":
		return true
	}
	return false
}

func isTagNameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isAttributeNameChar(c byte) bool {
	return isTagNameChar(c) || c == ':' || c == '.'
}
