package routes

import (
	"errors"
	"strings"
	"testing"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/internal/config"
)

func TestValidateUpload(t *testing.T) {
	cfg := &config.Config{
		MaxFileSize:  10 * 1024 * 1024,
		AllowedTypes: []string{"application/pdf"},
	}

	cases := []struct {
		name        string
		filename    string
		size        int64
		contentType string
		wantErr     bool
	}{
		{"valid upload", "report.pdf", 1024, "application/pdf", false},
		{"uppercase extension", "REPORT.PDF", 1024, "application/pdf", false},
		{"empty file", "report.pdf", 0, "application/pdf", true},
		{"oversized file", "report.pdf", 11 * 1024 * 1024, "application/pdf", true},
		{"missing filename", "", 1024, "application/pdf", true},
		{"overlong filename", strings.Repeat("a", 252) + ".pdf", 1024, "application/pdf", true},
		{"path traversal", "../etc/passwd.pdf", 1024, "application/pdf", true},
		{"wrong extension", "report.docx", 1024, "application/pdf", true},
		{"wrong content type", "report.pdf", 1024, "image/png", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateUpload(cfg, tc.filename, tc.size, tc.contentType)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected validation error")
				}
				if !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("expected validation error kind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
