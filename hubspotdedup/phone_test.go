package hubspotdedup

import (
	"reflect"
	"testing"
)

func TestNormalizeWith1(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "15551234567"},
		{"+1 555-123-4567", "15551234567"},
		{"1-555-123-4567", "15551234567"},
		{"11234", "11234"},
		{"no digits", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeWith1(tt.in); got != tt.want {
				t.Errorf("NormalizeWith1(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeWithout1(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"+1 555-123-4567", "5551234567"},
		{"11234", "1234"},
		{"no digits", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeWithout1(tt.in); got != tt.want {
				t.Errorf("NormalizeWithout1(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPhoneCandidates(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  []string
	}{
		{"empty", "", nil},
		{"formatted", "(555) 123-4567", []string{"(555) 123-4567", "15551234567", "5551234567"}},
		{"already with 1", "15551234567", []string{"15551234567", "5551234567"}},
		{"already without 1", "5551234567", []string{"5551234567", "15551234567"}},
		{"plus prefix", "+1 (555) 123-4567", []string{"+1 (555) 123-4567", "15551234567", "5551234567"}},
		{"no digits", "ext", []string{"ext"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PhoneCandidates(tt.phone)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PhoneCandidates(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}
