package services

import (
	"strings"
	"testing"
)

func TestChunkTextProperties(t *testing.T) {
	cases := []struct {
		name string
		text string
		size int
		want int
	}{
		{"exact multiple", strings.Repeat("a", 3000), 1000, 3},
		{"with remainder", strings.Repeat("b", 2500), 1000, 3},
		{"smaller than size", "short text", 1000, 1},
		{"single char", "x", 1, 1},
		{"size one", "abc", 1, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunks := ChunkText(tc.text, tc.size)

			if len(chunks) != tc.want {
				t.Fatalf("expected %d chunks, got %d", tc.want, len(chunks))
			}
			for i, chunk := range chunks {
				if len([]rune(chunk)) > tc.size {
					t.Fatalf("chunk %d has %d runes, exceeds size %d", i, len([]rune(chunk)), tc.size)
				}
			}
			if joined := strings.Join(chunks, ""); joined != tc.text {
				t.Fatalf("concatenation of chunks does not equal input text")
			}
		})
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("", 1000); chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := ChunkText("text", 0); chunks != nil {
		t.Fatalf("expected no chunks for zero size, got %d", len(chunks))
	}
}

func TestChunkTextDeterministic(t *testing.T) {
	text := strings.Repeat("Alpha Beta Gamma ", 100)
	first := ChunkText(text, 250)
	second := ChunkText(text, 250)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkTextMultibyte(t *testing.T) {
	// Rune-based splitting must never cut a UTF-8 sequence in half.
	text := strings.Repeat("héllo wörld ", 50)
	chunks := ChunkText(text, 100)

	if strings.Join(chunks, "") != text {
		t.Fatalf("multibyte text corrupted by chunking")
	}
	for i, chunk := range chunks {
		if !strings.Contains(text, chunk) {
			t.Fatalf("chunk %d is not a substring of the input", i)
		}
	}
}
