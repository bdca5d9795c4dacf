package js

import "testing"

func TestClassList(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		script string
	}{
		{"add", `<div id="el" class="a"></div>`, `
			el.classList.add("b", "c");
			if (el.className !== "a b c") throw new Error("className: " + el.className);`},
		{"add no duplicate", `<div id="el" class="a b"></div>`, `
			el.classList.add("a");
			if (el.className !== "a b") throw new Error("should not duplicate: " + el.className);`},
		{"remove", `<div id="el" class="a b c"></div>`, `
			el.classList.remove("b");
			if (el.className !== "a c") throw new Error("className: " + el.className);`},
		{"toggle", `<div id="el" class="a"></div>`, `
			if (!el.classList.toggle("b")) throw new Error("toggle add should return true");
			if (el.className !== "a b") throw new Error("after add: " + el.className);
			if (el.classList.toggle("a")) throw new Error("toggle remove should return false");
			if (el.className !== "b") throw new Error("after remove: " + el.className);`},
		{"toggle force", `<div id="el" class="a"></div>`, `
			if (!el.classList.toggle("a", true)) throw new Error("force true");
			if (el.className !== "a") throw new Error("force true changed: " + el.className);
			if (el.classList.toggle("z", false)) throw new Error("force false");
			if (el.classList.contains("z")) throw new Error("z added");`},
		{"contains and length", `<div id="el" class="x y"></div>`, `
			if (!el.classList.contains("y")) throw new Error("contains");
			if (el.classList.contains("z")) throw new Error("false positive");
			if (el.classList.length !== 2) throw new Error("length: " + el.classList.length);
			if (el.classList[1] !== "y" || el.classList.item(0) !== "x") throw new Error("index");`},
		{"no class attribute", `<div id="el"></div>`, `
			if (el.classList.length !== 0) throw new Error("length");
			el.classList.add("lazy--loaded");
			if (el.className !== "lazy--loaded") throw new Error("className: " + el.className);`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, tt.html)
			run(t, e, `var el = document.getElementById("el");`+tt.script)
		})
	}
}
