package summarize

import (
	"strings"
	"testing"
	"unicode"
)

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunks := Split("hello world", 100)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Errorf("Expected single unchanged chunk, got %v", chunks)
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("   \n  ", 100); chunks != nil {
		t.Errorf("Expected nil for blank input, got %v", chunks)
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	text := "First paragraph here.\n\nSecond paragraph here.\n\nThird paragraph here."
	chunks := Split(text, 50)

	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("Chunk %d is empty", i)
		}
		if n := len([]rune(c)); n > 50 {
			t.Errorf("Chunk %d has %d runes, budget is 50", i, n)
		}
		// Paragraph-level splitting keeps paragraphs whole.
		if strings.Contains(c, "paragraph") && !strings.HasSuffix(strings.TrimSpace(c), ".") {
			t.Errorf("Chunk %d cut mid-paragraph: %q", i, c)
		}
	}
}

func TestSplit_OversizedParagraphFallsBackToSentences(t *testing.T) {
	text := "One sentence. Two sentence. Three sentence. Four sentence. Five sentence."
	chunks := Split(text, 30)

	if len(chunks) < 2 {
		t.Fatalf("Expected sentence-level split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 30 {
			t.Errorf("Chunk %d has %d runes, budget is 30", i, n)
		}
	}
}

func TestSplit_JapaneseSentences(t *testing.T) {
	text := "今日の議題を確認します。まずは進捗からです。次にリリース日を決めます。最後に質疑応答をします。"
	chunks := Split(text, 20)

	if len(chunks) < 2 {
		t.Fatalf("Expected split on Japanese sentence enders, got %d chunks", len(chunks))
	}
	if stripSpace(strings.Join(chunks, "")) != stripSpace(text) {
		t.Error("Splitting dropped characters from Japanese text")
	}
}

func TestSplit_ReconstructsInput(t *testing.T) {
	text := "Alpha beta gamma delta.\n\nEpsilon zeta eta theta. Iota kappa lambda mu.\n\n" +
		"Nu xi omicron pi rho sigma tau upsilon phi chi psi omega and then some more words to push this paragraph well over the budget so it gets split at sentence level. Another sentence follows here."
	chunks := Split(text, 60)

	if stripSpace(strings.Join(chunks, "")) != stripSpace(text) {
		t.Error("Concatenated chunks do not reconstruct the input")
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("Chunk %d is empty", i)
		}
	}
}

func TestSplit_HardCutsGiantSentence(t *testing.T) {
	text := strings.Repeat("a", 250) // no terminators at all
	chunks := Split(text, 100)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 hard-cut chunks, got %d", len(chunks))
	}
	if stripSpace(strings.Join(chunks, "")) != text {
		t.Error("Hard cutting dropped characters")
	}
}
