package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "indian E.164",
			input: "+919876543210",
			want:  "+919876543210",
		},
		{
			name:  "indian local with spaces",
			input: "98765 43210",
			want:  "+919876543210",
		},
		{
			name:  "indian with dashes and country code",
			input: "+91-98765-43210",
			want:  "+919876543210",
		},
		{
			name:  "bangladeshi E.164",
			input: "+8801712345678",
			want:  "+8801712345678",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +919876543210  ",
			want:  "+919876543210",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "letters",
			input: "call-me-maybe",
			want:  "",
		},
		{
			name:  "too short",
			input: "+91 12",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePhone(tt.input)
			if got != tt.want {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizePhone(got); again != got {
				t.Errorf("SanitizePhone not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Durga Puja  ", "Durga Puja"},
		{"collapse inner whitespace", "Durga \t\n  Puja", "Durga Puja"},
		{"bengali text", "  সময়   পরিবর্তন ", "সময় পরিবর্তন"},
		{"control characters dropped", "Kali\x00 Puja\x07", "Kali Puja"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanMultiline(t *testing.T) {
	got := CleanMultiline("  first   line \r\n\r\n second\tline  ")
	want := "first line\n\nsecond line"
	if got != want {
		t.Errorf("CleanMultiline() = %q, want %q", got, want)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Admin@Temple.ORG "); got != "admin@temple.org" {
		t.Errorf("SanitizeEmail() = %q", got)
	}
}

func TestSanitizeCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Puja Samagri", "puja_samagri"},
		{"  Festival -- Decoration ", "festival_decoration"},
		{"দান", "দান"},
		{"___", ""},
	}

	for _, tt := range tests {
		if got := SanitizeCategory(tt.input); got != tt.want {
			t.Errorf("SanitizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeSlice(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "dedupe after normalization",
			input: []string{"Admin@temple.org", "admin@temple.org ", "priest@temple.org"},
			want:  []string{"admin@temple.org", "priest@temple.org"},
		},
		{
			name:  "drop empties",
			input: []string{"", "  ", "a@b.c"},
			want:  []string{"a@b.c"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeSlice(tt.input, SanitizeEmail)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeSlice() = %v, want %v", got, tt.want)
			}
		})
	}
}
