package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/raluca-web/ai-bot/internal/logger"
	"github.com/raluca-web/ai-bot/models"
)

// Embedder converts text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// IngestResult is the observable outcome of one successful ingestion.
type IngestResult struct {
	DocumentID primitive.ObjectID
	Title      string
	ChunkCount int
	PageCount  int
}

// IngestionPipeline orchestrates extractor, chunker, embedder and store for
// one uploaded document. From the caller's perspective ingestion is atomic:
// either the document and all of its chunks are persisted, or nothing is.
type IngestionPipeline struct {
	extractor   TextExtractor
	embedder    Embedder
	store       VectorStore
	locker      DocumentLocker
	chunkSize   int
	concurrency int
}

func NewIngestionPipeline(extractor TextExtractor, embedder Embedder, store VectorStore, locker DocumentLocker, chunkSize, concurrency int) *IngestionPipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &IngestionPipeline{
		extractor:   extractor,
		embedder:    embedder,
		store:       store,
		locker:      locker,
		chunkSize:   chunkSize,
		concurrency: concurrency,
	}
}

// Ingest runs extract -> persist document -> chunk -> embed -> persist chunks.
// If any step after the document insert fails, the document is deleted again
// so no zero-chunk document ever survives a failed ingestion.
func (p *IngestionPipeline) Ingest(ctx context.Context, filename string, fileSize int64, data []byte) (*IngestResult, error) {
	tracer := otel.Tracer("ingestion-pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.ingest")
	defer span.End()
	span.SetAttributes(
		attribute.String("ingest.filename", filename),
		attribute.Int64("ingest.file_size", fileSize),
	)

	extraction, err := p.extractor.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	span.SetAttributes(
		attribute.Int("ingest.page_count", extraction.PageCount),
		attribute.Int("ingest.text_chars", len(extraction.Text)),
		attribute.String("ingest.extraction_method", extraction.Method),
	)

	chunks := ChunkText(extraction.Text, p.chunkSize)

	doc := &models.Document{
		Title:      strings.TrimSuffix(filename, filepath.Ext(filename)),
		Filename:   filename,
		FileSize:   fileSize,
		PageCount:  extraction.PageCount,
		Content:    extraction.Text,
		ChunkCount: len(chunks),
		UploadedAt: time.Now(),
	}

	docID, err := p.store.InsertDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}

	embedded, err := p.embedChunks(ctx, docID, chunks, extraction)
	if err == nil {
		err = p.locker.WithLock(ctx, docID.Hex(), func() error {
			if insertErr := p.store.InsertChunks(ctx, docID, embedded); insertErr != nil {
				return fmt.Errorf("persist chunks: %w", insertErr)
			}
			return nil
		})
	}
	if err != nil {
		p.compensate(docID)
		return nil, err
	}

	logger.Info("Document ingested",
		"document_id", docID.Hex(),
		"filename", filename,
		"chunks", len(chunks),
		"pages", extraction.PageCount,
		"method", extraction.Method)

	return &IngestResult{
		DocumentID: docID,
		Title:      doc.Title,
		ChunkCount: len(chunks),
		PageCount:  extraction.PageCount,
	}, nil
}

// embedChunks embeds all chunks with bounded parallelism. ChunkIndex and page
// are assigned from original text position, never from completion order, so
// the persisted ordering is deterministic regardless of concurrency.
func (p *IngestionPipeline) embedChunks(ctx context.Context, docID primitive.ObjectID, chunks []string, extraction *Extraction) ([]models.DocumentChunk, error) {
	embedded := make([]models.DocumentChunk, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, content := range chunks {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, content)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			embedded[i] = models.DocumentChunk{
				DocumentID: docID,
				Content:    content,
				Embedding:  vec,
				ChunkIndex: i,
				Page:       extraction.PageForOffset(i * p.chunkSize),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embedded, nil
}

// compensate deletes the partially-created document after a downstream
// failure. Best effort: a failure here leaves a chunk-less document row,
// which is logged for manual cleanup.
func (p *IngestionPipeline) compensate(docID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := p.locker.WithLock(ctx, docID.Hex(), func() error {
		return p.store.DeleteDocument(ctx, docID)
	})
	if err != nil {
		logger.Error("Failed to clean up document after ingestion failure", "document_id", docID.Hex(), "error", err)
	}
}
