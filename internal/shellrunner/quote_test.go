package shellrunner

import "testing"

func TestSingleQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "'simple'"},
		{"", "''"},
		{"it's", `'it'\''s'`},
		{"a'b'c", `'a'\''b'\''c'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SingleQuote(tt.in); got != tt.want {
				t.Errorf("SingleQuote(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
