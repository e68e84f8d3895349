package service

import (
	"regexp"
	"strings"
	"testing"

	"github.com/homesite/internal/db"
)

var slugAlphabet = regexp.MustCompile(`^[a-z0-9-]*$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Hello World", want: "hello-world"},
		{title: "Hello World!", want: "hello-world"},
		{title: "  Spring   Cleaning: 10 Tips  ", want: "spring-cleaning-10-tips"},
		{title: "snake_case__title", want: "snake-case-title"},
		{title: "--Already-Hyphenated--", want: "already-hyphenated"},
		{title: "Café & Crème", want: "caf-crme"},
		{title: "!!!", want: ""},
		{title: "Hello\u00a0World", want: "hello-world"},
		{title: "Spring\u2003Cleaning Tips", want: "spring-cleaning-tips"},
		{title: "Fall\u3000Guide", want: "fall-guide"},
		{title: "Line\u2028Break\u2029Here", want: "line-break-here"},
		{title: "\ufeffBOM\u202fTitle\v", want: "bom-title"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSlugifyIdempotentAndURLSafe(t *testing.T) {
	titles := []string{
		"Hello World",
		"  Why   your gutters  need love\tin autumn ",
		"A/B testing: the_good, the-bad & the ugly",
		"Ünïcödé títle — with dashes",
		"___",
		"2024 Seasonal Checklist (Part 2)",
		"-leading and trailing-",
	}

	for _, title := range titles {
		once := Slugify(title)
		twice := Slugify(once)
		if once != twice {
			t.Fatalf("slug not idempotent for %q: %q then %q", title, once, twice)
		}
		if !slugAlphabet.MatchString(once) {
			t.Fatalf("slug %q contains characters outside [a-z0-9-]", once)
		}
		if strings.HasPrefix(once, "-") || strings.HasSuffix(once, "-") {
			t.Fatalf("slug %q has leading or trailing hyphen", once)
		}
	}
}

func TestCalculateReadTime(t *testing.T) {
	tests := []struct {
		name     string
		intro    string
		sections []db.ContentSection
		want     int
	}{
		{name: "empty", want: 1},
		{name: "short", intro: "just a few words", want: 1},
		{name: "exactly two hundred", intro: strings.Repeat("word ", 200), want: 1},
		{name: "two fifty", intro: strings.Repeat("word ", 250), want: 2},
		{
			name:  "sections counted",
			intro: strings.Repeat("word ", 150),
			sections: []db.ContentSection{
				{Heading: "Heading one", Body: strings.Repeat("body ", 48)},
				{Heading: "Tail", Body: "x"},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateReadTime(tt.intro, tt.sections); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
