package content

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello-world"},
		{"  Crème Brûlée  ", "creme-brulee"},
		{"Go 1.22 release", "go-1-22-release"},
		{"already-a-slug", "already-a-slug"},
		{"---", ""},
		{"C++ & Rust", "c-rust"},
		{"日本語", "日本語"},
		{"under_score_name", "under-score-name"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTagSlug(t *testing.T) {
	if got := TagSlug("Go Lang"); got != "go-lang" {
		t.Errorf("TagSlug(%q) = %q, want %q", "Go Lang", got, "go-lang")
	}
	plus, minus := TagSlug("++"), TagSlug("--")
	if !strings.HasPrefix(plus, "tag-") || len(plus) != len("tag-")+8 {
		t.Errorf("TagSlug(%q) = %q, want a tag- fallback", "++", plus)
	}
	if plus == minus {
		t.Errorf("TagSlug gave %q for both %q and %q", plus, "++", "--")
	}
	if again := TagSlug("++"); again != plus {
		t.Errorf("TagSlug(%q) not stable: %q then %q", "++", plus, again)
	}
}
