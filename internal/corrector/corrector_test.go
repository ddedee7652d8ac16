package corrector

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	c := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input passes through",
			in:   "",
			want: "",
		},
		{
			name: "truncated article at word boundary",
			in:   "Te AI service is ready.",
			want: "The AI service is ready.",
		},
		{
			name: "truncated article Th",
			in:   "Th customer asked for a refund.",
			want: "The customer asked for a refund.",
		},
		{
			name: "doubled article Tee",
			in:   "Tee results are in.",
			want: "The results are in.",
		},
		{
			name: "lowercase article at sentence start",
			in:   "Done. te data shows growth.",
			want: "Done. The data shows growth.",
		},
		{
			name: "Al misread as AI after article",
			in:   "The Al service responded quickly.",
			want: "The AI service responded quickly.",
		},
		{
			name: "Al misread as AI before verb",
			in:   "Al can summarize the report.",
			want: "AI can summarize the report.",
		},
		{
			name: "standalone Al is left alone",
			in:   "Al went home.",
			want: "Al went home.",
		},
		{
			name: "greeting typo capitalized at start",
			in:   "hllo there, how can I help?",
			want: "Hello there, how can I help?",
		},
		{
			name: "apology typo preserves case",
			in:   "Srry, I cannot do that.",
			want: "Sorry, I cannot do that.",
		},
		{
			name: "common word typos",
			in:   "teh report is definately wiht thier team.",
			want: "The report is definitely with their team.",
		},
		{
			name: "plural absorbed by the pattern",
			in:   "Our custmmers asked about promtions.",
			want: "Our customers asked about promotions.",
		},
		{
			name: "month keeps proper noun capital",
			in:   "sales rose in februry.",
			want: "Sales rose in February.",
		},
		{
			name: "whitespace runs collapse",
			in:   "one   two\t\tthree",
			want: "One two three",
		},
		{
			name: "punctuation spacing",
			in:   "wait ,what?ok",
			want: "Wait, what? Ok",
		},
		{
			name: "sentence capitalization",
			in:   "first point. second point.",
			want: "First point. Second point.",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  clean text.  ",
			want: "Clean text.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := c.Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotentOnCleanText(t *testing.T) {
	t.Parallel()

	c := New()
	clean := "The AI service handled the request. All providers are healthy."
	got, err := c.Normalize(clean)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != clean {
		t.Errorf("clean text changed: %q", got)
	}
}
