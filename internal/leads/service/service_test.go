package service

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and trims", "  Dana@Example.COM ", "dana@example.com"},
		{"keeps plus addressing", "dana+quotes@example.com", "dana+quotes@example.com"},
		{"rejects missing at", "dana.example.com", ""},
		{"rejects missing local part", "@example.com", ""},
		{"rejects missing domain dot", "dana@localhost", ""},
		{"rejects trailing at", "dana@", ""},
		{"rejects empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.input); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
