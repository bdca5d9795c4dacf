package css

import (
	"strconv"
	"strings"
)

// Style holds longhand declarations from an inline style attribute.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) GetLength(property string) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val)
}

// ParseLength parses a pixel length ("100px", "100", "0"). Relative units
// are not supported and report false.
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(strings.ToLower(val))
	val = strings.TrimSuffix(val, "px")
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (s *Style) GetMargin() BoxEdge {
	return BoxEdge{
		Top:    s.getLengthOrZero("margin-top"),
		Right:  s.getLengthOrZero("margin-right"),
		Bottom: s.getLengthOrZero("margin-bottom"),
		Left:   s.getLengthOrZero("margin-left"),
	}
}

func (s *Style) getLengthOrZero(property string) float64 {
	if v, ok := s.GetLength(property); ok {
		return v
	}
	return 0
}

// Display returns the display value, or "" when unset.
func (s *Style) Display() string {
	v, _ := s.Get("display")
	return strings.ToLower(strings.TrimSpace(v))
}

func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range strings.Split(styleAttr, ";") {
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" {
			continue
		}
		if property == "margin" {
			expandBoxProperty(style, "margin", value)
			continue
		}
		style.Set(property, value)
	}
	return style
}

// expandBoxProperty expands 1 to 4 value shorthands (margin: 10px 5px).
func expandBoxProperty(style *Style, prefix, value string) {
	parts := strings.Fields(value)
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	case 4:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	style.Set(prefix+"-top", top)
	style.Set(prefix+"-right", right)
	style.Set(prefix+"-bottom", bottom)
	style.Set(prefix+"-left", left)
}
