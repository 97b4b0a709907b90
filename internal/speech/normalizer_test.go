package speech

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize_Decimals(t *testing.T) {
	n := NewNormalizer("", "", 0)

	tests := []struct {
		in   string
		want string
	}{
		{"16.5", "16 point 5"},
		{"16.0", "16"},
		{"7.25", "7 point 2 5"},
		{"100.00", "100"},
		{"0.05", "0 point 0 5"},
		{"no numbers here", "no numbers here"},
		{"Hemoglobin is 9.2 g/dL.", "Hemoglobin is 9 point 2 g/dL."},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Ranges(t *testing.T) {
	n := NewNormalizer("", "", 0)

	tests := []struct {
		in   string
		want string
	}{
		{"13.0–17.0 g/dL", "13 to 17 g/dL"},
		{"70-100", "70 to 100"},
		{"4.5 - 5.5", "4 point 5 to 5 point 5"},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_LocalizedWords(t *testing.T) {
	n := NewNormalizer("पॉइंट", "ते", 0)

	got := n.Normalize("हिमोग्लोबिन 9.2 आहे, श्रेणी 13.0–17.0")
	want := "हिमोग्लोबिन 9 पॉइंट 2 आहे, श्रेणी 13 ते 17"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestChunks(t *testing.T) {
	n := NewNormalizer("", "", 60)

	text := "Hemoglobin is 9.2 g/dL. Sugar is 110.0 mg/dL! Platelets are fine? " +
		"कृपया ही चाचणी तुमच्या डॉक्टरांना दाखवा।"
	chunks := n.Chunks(text)

	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 60 {
			t.Errorf("chunk over limit: %q", c)
		}
	}

	joined := strings.Join(chunks, " ")
	if !strings.Contains(joined, "9 point 2") {
		t.Errorf("decimal must be spoken, got %q", joined)
	}
	if !strings.Contains(joined, "Sugar is 110 mg/dL!") {
		t.Errorf("zero fraction must be dropped, got %q", joined)
	}
}
