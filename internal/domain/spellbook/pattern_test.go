package spellbook

import "testing"

func TestGeneralizeErrorPattern(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "single quoted value",
			message: "Cannot read property 'length' of undefined",
			want:    "Cannot read property '.*' of undefined",
		},
		{
			name:    "double quoted value",
			message: `key "user_id" not found`,
			want:    `key ".*" not found`,
		},
		{
			name:    "numbers become wildcards",
			message: "expected 3 arguments, got 7",
			want:    `expected \d+ arguments, got \d+`,
		},
		{
			name:    "empty message matches anything",
			message: "",
			want:    ".*",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GeneralizeErrorPattern(tc.message); got != tc.want {
				t.Fatalf("GeneralizeErrorPattern(%q) = %q, want %q", tc.message, got, tc.want)
			}
		})
	}
}

func TestDeriveTags(t *testing.T) {
	tags := DeriveTags("TypeError", []string{"app/main.py", "web/index.js", "notes.txt"})
	if tags != "auto-generated,js,py,typeerror" {
		t.Fatalf("DeriveTags() = %q", tags)
	}

	tags = DeriveTags("", nil)
	if tags != "auto-generated" {
		t.Fatalf("DeriveTags(empty) = %q", tags)
	}
}

func TestInferLanguage(t *testing.T) {
	code := "fix app/handlers.py and app/models.py, touch web/app.js"
	if got := InferLanguage(code); got != "python" {
		t.Fatalf("InferLanguage() = %q, want python", got)
	}

	if got := InferLanguage("no file paths here"); got != "" {
		t.Fatalf("InferLanguage(none) = %q, want empty", got)
	}

	// Tie resolves to the first language seen.
	if got := InferLanguage("a.go then b.py"); got != "go" {
		t.Fatalf("InferLanguage(tie) = %q, want go", got)
	}
}
