package css

import (
	"errors"
	"testing"
)

func TestParseSelector_Compound(t *testing.T) {
	sel, err := ParseSelector(`img#hero.wide.lazy[dataset][alt^="cat"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(sel.Parts))
	}
	part := sel.Parts[0]
	if part.Element != "img" || part.ID != "hero" {
		t.Errorf("expected img#hero, got %s#%s", part.Element, part.ID)
	}
	if len(part.Classes) != 2 || part.Classes[0] != "wide" || part.Classes[1] != "lazy" {
		t.Errorf("unexpected classes %v", part.Classes)
	}
	if len(part.Attributes) != 2 {
		t.Fatalf("expected 2 attribute selectors, got %d", len(part.Attributes))
	}
	if a := part.Attributes[0]; a.Name != "dataset" || a.Operator != "" {
		t.Errorf("unexpected presence selector %+v", a)
	}
	if a := part.Attributes[1]; a.Name != "alt" || a.Operator != "^=" || a.Value != "cat" {
		t.Errorf("unexpected prefix selector %+v", a)
	}
}

func TestParseSelector_Combinators(t *testing.T) {
	tests := []struct {
		input string
		parts int
		comb  []Combinator
	}{
		{"div img", 2, []Combinator{DescendantCombinator}},
		{"div > img", 2, []Combinator{ChildCombinator}},
		{"div>img", 2, []Combinator{ChildCombinator}},
		{"main  section >  img", 3, []Combinator{DescendantCombinator, ChildCombinator}},
	}
	for _, tt := range tests {
		sel, err := ParseSelector(tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if len(sel.Parts) != tt.parts {
			t.Errorf("%q: expected %d parts, got %d", tt.input, tt.parts, len(sel.Parts))
			continue
		}
		for i, c := range tt.comb {
			if sel.Combinators[i] != c {
				t.Errorf("%q: combinator %d: expected %v, got %v", tt.input, i, c, sel.Combinators[i])
			}
		}
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	inputs := []string{"", "   ", "> img", "div >", "img[", "img[data", "img[data=", `img[a="x]`, "img[a!=b]", "#", ".", "img!"}
	for _, in := range inputs {
		if _, err := ParseSelector(in); !errors.Is(err, ErrInvalidSelector) {
			t.Errorf("%q: expected ErrInvalidSelector, got %v", in, err)
		}
	}
}

func TestParseSelectorGroup(t *testing.T) {
	group, err := ParseSelectorGroup(`img[data-src], img[alt="a,b"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(group) != 2 {
		t.Fatalf("expected 2 selectors, got %d", len(group))
	}
	if group[1].Parts[0].Attributes[0].Value != "a,b" {
		t.Errorf("comma inside quotes should not split, got %+v", group[1])
	}
	if _, err := ParseSelectorGroup(" , "); err == nil {
		t.Error("expected error for an empty group")
	}
}
