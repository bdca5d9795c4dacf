package css

import "testing"

func TestParseStylesheet_Rules(t *testing.T) {
	ss, err := ParseStylesheet(`
		div { color: red; }
		img.hero, #banner { height: 200px; margin: 10px 5px; }
		p { color: blue !important }
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ss.Rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(ss.Rules))
	}

	expected := []struct {
		raw         string
		specificity int
		property    string
		value       string
	}{
		{"div", 1, "color", "red"},
		{"img.hero", 11, "height", "200px"},
		{"#banner", 100, "margin-left", "5px"},
		{"p", 1, "color", "blue"},
	}
	for i, exp := range expected {
		rule := ss.Rules[i]
		if rule.Selector.Raw != exp.raw {
			t.Errorf("rule %d: expected selector %q, got %q", i, exp.raw, rule.Selector.Raw)
		}
		if rule.Specificity != exp.specificity {
			t.Errorf("rule %d: expected specificity %d, got %d", i, exp.specificity, rule.Specificity)
		}
		if got := rule.Declarations[exp.property]; got != exp.value {
			t.Errorf("rule %d: expected %s=%q, got %q", i, exp.property, exp.value, got)
		}
	}
}

func TestSpecificity(t *testing.T) {
	tests := map[string]int{
		"*":                  0,
		"img":                1,
		"[dataset]":          10,
		".a.b":               20,
		"#x":                 100,
		"div > img.lazy":     12,
		"#gallery img[data]": 111,
	}
	for raw, want := range tests {
		sel, err := ParseSelector(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if got := Specificity(sel); got != want {
			t.Errorf("Specificity(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestStripCSSComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"between rules", "body { color: red; } /* comment */ p { color: blue; }", "body { color: red; }  p { color: blue; }"},
		{"inside block", "body { /* comment */ color: red; }", "body {  color: red; }"},
		{"unterminated", "body { color: red; } /* unterminated", "body { color: red; } "},
		{"ends at first close", "/* outer /* inner */ still-outside */", " still-outside */"},
		{"stars", "/*** comment ***/", ""},
		{"inside string", `p { content: "/* not a comment */"; }`, `p { content: "/* not a comment */"; }`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCSSComments(tt.input); got != tt.expected {
				t.Errorf("stripCSSComments(%q)\n  got:  %q\n  want: %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseStylesheet_ErrorRecovery(t *testing.T) {
	tests := []struct {
		name          string
		css           string
		expectedRules int
	}{
		{"selector starting with closing brace", `} { color: red; } p { color: blue; }`, 1},
		{"semicolon selector", `{; color: red; } p { color: blue; }`, 1},
		{"unbalanced bracket", `[} { color: red; } p { color: green; }`, 1},
		{"empty selector", ` { color: red; } p { color: blue; }`, 1},
		{"unsupported pseudo-class", `a:hover { color: red; } p { color: blue; }`, 1},
		{"unknown at-rule", `@three-dee { body { color: red; } } p { color: blue; }`, 1},
		{"block-less at-rule", `@import url("foo.css"); p { color: blue; }`, 1},
		{"nested media ignored", `@media screen { @media print { p { color: red; } } h1 { color: red; } }`, 1},
		{"unclosed block at end", `p { color: red; } h1 { font-size: 20px`, 1},
		{"unclosed string", `p { content: "unclosed; } h1 { color: red; }`, 0},
		{"comment hides rule", `/* p { color: red; } */ h1 { color: red; }`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ss, err := ParseStylesheet(tt.css)
			if err != nil {
				t.Fatalf("ParseStylesheet returned error: %v", err)
			}
			if len(ss.Rules) != tt.expectedRules {
				t.Errorf("got %d rules, want %d", len(ss.Rules), tt.expectedRules)
			}
		})
	}
}

func TestParseStylesheet_InvalidDeclarations(t *testing.T) {
	ss, _ := ParseStylesheet(`p { badstuff; bad: ; 123abc: red; -webkit-thing: value; color: green; }`)
	if len(ss.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(ss.Rules))
	}
	decls := ss.Rules[0].Declarations
	for _, prop := range []string{"color", "-webkit-thing"} {
		if _, ok := decls[prop]; !ok {
			t.Errorf("expected %q in %v", prop, decls)
		}
	}
	for _, prop := range []string{"badstuff", "bad", "123abc"} {
		if _, ok := decls[prop]; ok {
			t.Errorf("%q should have been dropped", prop)
		}
	}
}

func TestEvaluateMediaQuery(t *testing.T) {
	tests := []struct {
		query string
		width float64
		want  bool
	}{
		{"", 800, true},
		{"screen", 800, true},
		{"print", 800, false},
		{"(max-width: 600px)", 400, true},
		{"(max-width: 600px)", 800, false},
		{"screen and (min-width: 500px) and (max-width: 900px)", 800, true},
		{"only screen and (min-width: 1000px)", 800, false},
		{"print, (min-width: 700px)", 800, true},
		{"(orientation: portrait)", 800, false},
	}
	for _, tt := range tests {
		if got := EvaluateMediaQuery(tt.query, tt.width); got != tt.want {
			t.Errorf("EvaluateMediaQuery(%q, %v) = %v, want %v", tt.query, tt.width, got, tt.want)
		}
	}
}
