package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reNonCategory     = regexp.MustCompile(`[^\p{L}\p{M}\p{N}]+`)
	reMultiUnderscore = regexp.MustCompile(`_+`)
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// CleanText trims, collapses runs of whitespace to one space and drops
// control characters. Bengali text passes through untouched.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(s))
	lastWasSpace := false

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		case unicode.IsControl(r):
			continue
		default:
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}

// CleanMultiline keeps line breaks, cleaning each line on its own.
func CleanMultiline(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = CleanText(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func SanitizeCategory(input string) string {
	p := Pipeline{
		CleanText,
		strings.ToLower,
		func(s string) string { return reNonCategory.ReplaceAllString(s, "_") },
		func(s string) string { return reMultiUnderscore.ReplaceAllString(s, "_") },
		func(s string) string { return strings.Trim(s, "_") },
	}
	return p.Apply(input)
}
