package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raluca-web/ai-bot/internal/apperr"
)

type fakeVision struct {
	text  string
	err   error
	calls int
}

func (v *fakeVision) ExtractDocumentText(ctx context.Context, content []byte) (string, error) {
	v.calls++
	if v.err != nil {
		return "", v.err
	}
	return v.text, nil
}

func TestExtractRejectsGarbageBytes(t *testing.T) {
	extractor := &Extractor{minTextLength: 50}

	_, err := extractor.Extract(context.Background(), []byte("this is not a pdf"))
	if err == nil {
		t.Fatalf("expected extraction error for non-PDF bytes")
	}
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Fatalf("expected extraction error kind, got %v", err)
	}
}

func TestExtractVisionFallbackIsGated(t *testing.T) {
	vision := &fakeVision{text: strings.Repeat("recovered text from scanned pages ", 5)}

	// Fallback disabled: vision must never run.
	extractor := &Extractor{minTextLength: 50, ocrFallback: false, vision: vision}
	if _, err := extractor.Extract(context.Background(), []byte("junk")); err == nil {
		t.Fatalf("expected failure with fallback disabled")
	}
	if vision.calls != 0 {
		t.Fatalf("vision fallback ran despite being disabled")
	}

	// Fallback enabled: vision runs only after the primary fails.
	extractor = &Extractor{minTextLength: 50, ocrFallback: true, vision: vision}
	result, err := extractor.Extract(context.Background(), []byte("junk"))
	if err != nil {
		t.Fatalf("fallback extraction failed: %v", err)
	}
	if vision.calls != 1 {
		t.Fatalf("expected exactly one vision call, got %d", vision.calls)
	}
	if result.Method != "vision" {
		t.Fatalf("expected vision method, got %q", result.Method)
	}
	if result.PageCount != 1 {
		t.Fatalf("expected page count 1 without page markers, got %d", result.PageCount)
	}
}

func TestExtractVisionFallbackStillInsufficient(t *testing.T) {
	vision := &fakeVision{text: "tiny"}
	extractor := &Extractor{minTextLength: 50, ocrFallback: true, vision: vision}

	_, err := extractor.Extract(context.Background(), []byte("junk"))
	if !errors.Is(err, apperr.ErrExtraction) {
		t.Fatalf("expected extraction error when fallback text is below threshold, got %v", err)
	}
}

func TestPageForOffset(t *testing.T) {
	x := &Extraction{PageOffsets: []int{0, 100, 250}}

	cases := []struct {
		offset int
		page   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{10000, 3},
	}
	for _, tc := range cases {
		if got := x.PageForOffset(tc.offset); got != tc.page {
			t.Fatalf("offset %d: expected page %d, got %d", tc.offset, tc.page, got)
		}
	}

	empty := &Extraction{}
	if got := empty.PageForOffset(500); got != 1 {
		t.Fatalf("missing offsets should default to page 1, got %d", got)
	}
}
