package secret

import "testing"

func TestMask(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "a****f"},
		{"abcdefghijklmnopqrstuvwxyz", "abc**********************z"},
	}
	for _, c := range cases {
		if got := Mask(c.in); got != c.want {
			t.Fatalf("Mask(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestMaskHeader(t *testing.T) {
	if got := MaskHeader("Content-Type", "application/json"); got != "application/json" {
		t.Fatalf("non-secret header masked: %q", got)
	}
	if got := MaskHeader("Authorization", "Bearer abcdef"); got != "Bearer a****f" {
		t.Fatalf("unexpected bearer mask %q", got)
	}
	if got := MaskHeader("X-Session-Token", "abc"); got != "***" {
		t.Fatalf("unexpected token mask %q", got)
	}
}
