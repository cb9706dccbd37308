package ai

import (
	"context"
	"fmt"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/raluca-web/ai-bot/internal/apperr"
)

const embedMaxAttempts = 3

// Embed returns the embedding vector for a single text. Transient provider
// failures are retried with exponential backoff, capped at embedMaxAttempts.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", c.embeddingModel),
		attribute.Int("gemini.input_chars", len(text)),
	)

	var lastErr error
	for attempt := 0; attempt < embedMaxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s
			select {
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			case <-ctx.Done():
				return nil, fmt.Errorf("embedding: %w: %v", apperr.ErrProvider, ctx.Err())
			}
		}

		vec, err := c.embedOnce(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}

	span.SetAttributes(attribute.Bool("gemini.error", true))
	return nil, fmt.Errorf("embedding after %d attempts: %w: %v", embedMaxAttempts, apperr.ErrProvider, lastErr)
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.EmbeddingModel(c.embeddingModel)
		resp, err := model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// EmbedBatch embeds several texts in one provider round trip. Output order
// matches input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_batch")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", c.embeddingModel),
		attribute.Int("gemini.batch_size", len(texts)),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("batch embedding: %w: %v", apperr.ErrProvider, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.EmbeddingModel(c.embeddingModel)
		batch := model.NewBatch()
		for _, text := range texts {
			batch.AddContent(genai.Text(text))
		}
		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
		}
		vectors := make([][]float32, len(resp.Embeddings))
		for i, emb := range resp.Embeddings {
			vectors[i] = emb.Values
		}
		return vectors, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, fmt.Errorf("batch embedding: %w: %v", apperr.ErrProvider, err)
	}

	return result.([][]float32), nil
}
