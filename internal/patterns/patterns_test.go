package patterns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCompiles(t *testing.T) {
	s, err := Compile(Default())
	if err != nil {
		t.Fatalf("Compile(Default()) error = %v", err)
	}
	if len(s.Ranges) == 0 {
		t.Error("expected default range patterns")
	}
	if s.Tables.Limits.MaxRangeSpan != 20 {
		t.Errorf("MaxRangeSpan = %d, want 20", s.Tables.Limits.MaxRangeSpan)
	}
	if got := s.Tables.Limits.ArticleThreshold; got != 0.35 {
		t.Errorf("ArticleThreshold = %v, want 0.35", got)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := "heading_words:\n  - section\nlimits:\n  max_range_span: 5\n  narrow_top_k: 3\n  default_top_k: 6\n  broad_top_k: 9\n  article_threshold: 0.3\n  concept_threshold: 0.4\n  overlap_window: 100\n  min_overlap: 4\n  orphan_min_overlap: 8\n  max_article_chars: 1000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tables.HeadingWords) != 1 || tables.HeadingWords[0] != "section" {
		t.Errorf("HeadingWords = %v, want [section]", tables.HeadingWords)
	}
	if tables.Limits.MaxRangeSpan != 5 {
		t.Errorf("MaxRangeSpan = %d, want 5", tables.Limits.MaxRangeSpan)
	}
	// Sections absent from the override keep their defaults.
	if len(tables.CorrectionMarkers) == 0 {
		t.Error("CorrectionMarkers should keep default values")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing file should return error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("heading_words: []\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with empty heading_words should return error")
	}
}

func TestCompileRejectsSingleGroupRange(t *testing.T) {
	tables := Default()
	tables.RangePatterns = []string{`(\d+)`}
	if _, err := Compile(tables); err == nil {
		t.Error("Compile() should reject range pattern with one group")
	}
}

func TestFindHeadings(t *testing.T) {
	s := MustCompileDefault()
	text := "Artículo 142.\nEl que por imprudencia...\nArtículo 142 bis.\nEn los casos...\n  ARTÍCULO 143\nEl que induzca, conforme al artículo 142."

	got := s.FindHeadings(text)
	want := []string{"142", "142 bis", "143"}
	if len(got) != len(want) {
		t.Fatalf("FindHeadings() returned %d matches, want %d: %+v", len(got), len(want), got)
	}
	for i, m := range got {
		if m.Key != want[i] {
			t.Errorf("match %d key = %q, want %q", i, m.Key, want[i])
		}
	}
}

func TestFindHeadings_SameLine(t *testing.T) {
	s := MustCompileDefault()
	text := "Artículo 138. El que matare a otro será castigado. Artículo 139: Será castigado, conforme al artículo 138. también. Artículo 140 sin punto."

	got := s.FindHeadings(text)
	want := []string{"138", "139"}
	if len(got) != len(want) {
		t.Fatalf("FindHeadings() returned %d matches, want %d: %+v", len(got), len(want), got)
	}
	for i, m := range got {
		if m.Key != want[i] {
			t.Errorf("match %d key = %q, want %q", i, m.Key, want[i])
		}
	}
	if got[1].Start != strings.Index(text, "Artículo 139") {
		t.Errorf("match 1 start = %d, want %d", got[1].Start, strings.Index(text, "Artículo 139"))
	}

	loose := s.FindSentenceHeadings(text)
	if len(loose) != 3 || loose[2].Key != "140" {
		t.Errorf("FindSentenceHeadings() = %+v, want 138, 139 and 140", loose)
	}
}

func TestSentenceStart(t *testing.T) {
	tests := []struct {
		text string
		pos  int
		want bool
	}{
		{"Artículo 1.", 0, true},
		{"fin.  Artículo 2.", 6, true},
		{"línea\n\tArtículo 3.", 8, true},
		{"según el Artículo 4.", 10, false},
	}
	for _, tt := range tests {
		if got := SentenceStart(tt.text, tt.pos); got != tt.want {
			t.Errorf("SentenceStart(%q, %d) = %v, want %v", tt.text, tt.pos, got, tt.want)
		}
	}
}

func TestFindReferences(t *testing.T) {
	s := MustCompileDefault()
	got := s.FindReferences("según el art. 138 y el Artículo 142bis del código")
	if len(got) != 2 {
		t.Fatalf("FindReferences() returned %d matches, want 2: %+v", len(got), got)
	}
	if got[0].Key != "138" || got[1].Key != "142 bis" {
		t.Errorf("keys = %q, %q; want 138, 142 bis", got[0].Key, got[1].Key)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"138", "138"},
		{" 138 ", "138"},
		{"142bis", "142 bis"},
		{"142  BIS", "142 bis"},
		{"0138", "138"},
		{"Quater", "quater"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitKey(t *testing.T) {
	n, suffix, ok := SplitKey("142 bis")
	if !ok || n != 142 || suffix != "bis" {
		t.Errorf("SplitKey(142 bis) = %d, %q, %v", n, suffix, ok)
	}
	if _, _, ok := SplitKey("abc"); ok {
		t.Error("SplitKey(abc) should fail")
	}
}

func TestPhraseMatching(t *testing.T) {
	tokens := Tokenize("¿Y qué más dice, sobre eso?")
	if !NewPhrase("qué más").In(tokens) {
		t.Error("expected multi-word phrase to match")
	}
	if !NewPhrase("y").Prefixes(tokens) {
		t.Error("expected prefix match on first token")
	}
	if NewPhrase("dice sobre nada").In(tokens) {
		t.Error("unexpected match")
	}
	if NewPhrase("").In(tokens) {
		t.Error("empty phrase must not match")
	}
}
