package ident

import "testing"

func TestPathChild(t *testing.T) {
	root := Path{}
	a := root.Child(1)
	b := a.Child(0)
	c := a.Child(2)

	if !b.Is(1, 0) {
		t.Errorf("b = %v, want 1.0", b)
	}
	if !c.Is(1, 2) {
		t.Errorf("c = %v, want 1.2", c)
	}
	// Child must not alias its parent's backing array.
	if !b.Is(1, 0) {
		t.Errorf("b changed after sibling allocation: %v", b)
	}
}

func TestPathSibling(t *testing.T) {
	p := Path{0, 3}
	if got := p.Sibling(); !got.Is(0, 4) {
		t.Errorf("Sibling() = %v, want 0.4", got)
	}
	if !p.Is(0, 3) {
		t.Errorf("Sibling mutated receiver: %v", p)
	}
	if got := (Path{}).Sibling(); len(got) != 0 {
		t.Errorf("root Sibling() = %v, want root", got)
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		path Path
		want string
	}{
		{Path{}, ""},
		{Path{0}, "0"},
		{Path{0, 1, 2}, "0.1.2"},
	}
	for _, tt := range tests {
		if got := tt.path.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", []int(tt.path), got, tt.want)
		}
		parsed, err := ParsePath(tt.want)
		if err != nil {
			t.Fatalf("ParsePath(%q) error: %v", tt.want, err)
		}
		if !parsed.Equal(tt.path) {
			t.Errorf("ParsePath(%q) = %v, want %v", tt.want, parsed, tt.path)
		}
	}

	if _, err := ParsePath("1.x"); err == nil {
		t.Error("ParsePath(\"1.x\") should fail")
	}
}
