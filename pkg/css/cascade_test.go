package css

import (
	"testing"

	"lazyload/pkg/html"
)

func cascadeFor(t *testing.T, width float64, sheets ...string) *Cascade {
	t.Helper()
	doc := html.NewDocument()
	doc.Stylesheets = sheets
	return NewCascade(doc, width)
}

func element(tag string, attrs map[string]string) *html.Node {
	n := html.NewElement(tag, attrs)
	html.NewDocument().Root.AddChild(n)
	return n
}

func TestCascade_Specificity(t *testing.T) {
	c := cascadeFor(t, 800, `
		#hero { height: 300px; }
		img { height: 100px; }
		.lazy { height: 150px; }
		img { width: 50px; }
	`)

	tests := []struct {
		name   string
		attrs  map[string]string
		height string
	}{
		{"type only", nil, "100px"},
		{"class beats type", map[string]string{"class": "lazy"}, "150px"},
		{"id beats class", map[string]string{"class": "lazy", "id": "hero"}, "300px"},
		{"inline beats id", map[string]string{"id": "hero", "style": "height: 10px"}, "10px"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := c.ComputeStyle(element("img", tt.attrs))
			if got, _ := style.Get("height"); got != tt.height {
				t.Errorf("expected height %s, got %q", tt.height, got)
			}
			if got, _ := style.Get("width"); got != "50px" {
				t.Errorf("declarations from separate rules merge, width = %q", got)
			}
		})
	}
}

func TestCascade_LaterRuleWinsTie(t *testing.T) {
	c := cascadeFor(t, 800, `.a { display: block }`, `.a { display: none }`)
	if got := c.ComputeStyle(element("div", map[string]string{"class": "a"})).Display(); got != "none" {
		t.Errorf("expected the later stylesheet to win, got %q", got)
	}
}

func TestCascade_Media(t *testing.T) {
	sheet := `img { height: 100px } @media (max-width: 600px) { img { height: 40px } }`
	if n := cascadeFor(t, 800, sheet).Len(); n != 1 {
		t.Errorf("expected the media rule inactive at 800px, got %d rules", n)
	}
	style := cascadeFor(t, 400, sheet).ComputeStyle(element("img", nil))
	if got, _ := style.Get("height"); got != "40px" {
		t.Errorf("expected 40px at 400px wide, got %q", got)
	}
}

func TestCascade_NoStylesheets(t *testing.T) {
	c := cascadeFor(t, 800)
	style := c.ComputeStyle(element("p", map[string]string{"style": "margin: 4px"}))
	if got := style.GetMargin(); got.Top != 4 || got.Left != 4 {
		t.Errorf("expected inline margin, got %+v", got)
	}
}
