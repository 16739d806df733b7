package wire

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world 42", "hello world 42"},
		{"punctuation", "a,b.c-d/e@f(g)*~`&^%$#!?<>'\";:+=[]{}|", "a,b.c-d/e@f(g)*~`&^%$#!?<>'\";:+=[]{}|"},
		{"control", "tab\there\nnewline", "tab_here_newline"},
		{"backslash", `a\b`, "a_b"},
		{"unicode", "héllo", "h_llo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
