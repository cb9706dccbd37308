package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/internal/config"
	"github.com/raluca-web/ai-bot/internal/logger"
)

// Extraction is the result of pulling plain text out of a PDF.
type Extraction struct {
	Text      string
	PageCount int
	// PageOffsets[i] is the rune offset in Text where page i+1 begins.
	// A chunk's page is the page containing its first rune.
	PageOffsets []int
	Method      string
}

// TextExtractor turns raw PDF bytes into plain text plus a page count.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (*Extraction, error)
}

// VisionExtractor re-derives text from rendered pages. It is the expensive
// fallback for image-only or scanned PDFs.
type VisionExtractor interface {
	ExtractDocumentText(ctx context.Context, content []byte) (string, error)
}

// Extractor turns raw PDF bytes into plain text plus a page count. The
// primary strategy is a structural parse of the page tree; when that yields
// insufficient text and the fallback is enabled, the vision path is tried
// once. The fallback never runs unless the primary has failed.
type Extractor struct {
	minTextLength int
	ocrFallback   bool
	vision        VisionExtractor
}

func NewExtractor(cfg *config.Config, vision VisionExtractor) *Extractor {
	return &Extractor{
		minTextLength: cfg.MinTextLength,
		ocrFallback:   cfg.OCRFallback,
		vision:        vision,
	}
}

// Extract parses the PDF and returns its text in reading order. It fails with
// an extraction error when the trimmed text is below the minimum threshold,
// which signals an image-only, scanned or corrupt PDF.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	result, err := e.extractStructural(data)
	if err == nil && e.sufficient(result.Text) {
		return result, nil
	}
	if err != nil {
		logger.Warn("Structural PDF extraction failed", "error", err)
	}

	if e.ocrFallback && e.vision != nil {
		fallback, ferr := e.extractWithVision(ctx, data, result)
		if ferr != nil {
			logger.Warn("Vision fallback extraction failed", "error", ferr)
		} else if e.sufficient(fallback.Text) {
			return fallback, nil
		}
	}

	got := 0
	if result != nil {
		got = len(strings.TrimSpace(result.Text))
	}
	return nil, fmt.Errorf("could not extract sufficient text from PDF (got %d characters, need %d): %w",
		got, e.minTextLength, apperr.ErrExtraction)
}

func (e *Extractor) sufficient(text string) bool {
	return len(strings.TrimSpace(text)) >= e.minTextLength
}

// extractStructural walks the page tree and concatenates per-page text runs
// in reading order.
func (e *Extractor) extractStructural(data []byte) (result *Extraction, err error) {
	// The parser panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	pages := reader.NumPage()
	var textBuilder strings.Builder
	offsets := make([]int, 0, pages)
	runeCount := 0

	for i := 1; i <= pages; i++ {
		offsets = append(offsets, runeCount)

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract page text", "page", i, "error", err)
			continue
		}

		textBuilder.WriteString(text)
		runeCount += len([]rune(text))
		if i < pages {
			textBuilder.WriteString("\n\n")
			runeCount += 2
		}
	}

	return &Extraction{
		Text:        textBuilder.String(),
		PageCount:   pages,
		PageOffsets: offsets,
		Method:      "structural",
	}, nil
}

// extractWithVision reuses the structural page count when available; page
// provenance degrades to a single span since the vision output has no page
// boundaries.
func (e *Extractor) extractWithVision(ctx context.Context, data []byte, structural *Extraction) (*Extraction, error) {
	text, err := e.vision.ExtractDocumentText(ctx, data)
	if err != nil {
		return nil, err
	}

	pageCount := 1
	if structural != nil && structural.PageCount > 0 {
		pageCount = structural.PageCount
	} else if ff := strings.Count(text, "\f"); ff > 0 {
		pageCount = ff + 1
	}

	return &Extraction{
		Text:        text,
		PageCount:   pageCount,
		PageOffsets: []int{0},
		Method:      "vision",
	}, nil
}

// PageForOffset returns the 1-based page containing the given rune offset.
func (x *Extraction) PageForOffset(offset int) int {
	if len(x.PageOffsets) == 0 {
		return 1
	}
	page := 1
	for i, start := range x.PageOffsets {
		if offset >= start {
			page = i + 1
		}
	}
	return page
}
