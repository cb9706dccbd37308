package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/internal/config"
	"github.com/raluca-web/ai-bot/internal/logger"
)

// Client wraps the Gemini API for embeddings and chat completions.
// All outbound calls go through a circuit breaker and a client-side
// rate limiter sized for the configured API tier.
type Client struct {
	client         *genai.Client
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	embeddingModel string
	chatModel      string
	timeout        time.Duration
}

// Turn is one prior conversation exchange passed to Complete.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewClient(cfg *config.Config) (*Client, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	limits := getRateLimits(cfg.GeminiTier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10+1)

	return &Client{
		client:         client,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		embeddingModel: cfg.EmbeddingModel,
		chatModel:      cfg.ChatModel,
		timeout:        time.Duration(cfg.ProviderTimeout) * time.Second,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default: // free
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// Complete performs a single non-streaming chat completion. The system
// instruction carries the grounding context; history holds prior turns in
// chronological order.
func (c *Client) Complete(ctx context.Context, system string, history []Turn, question string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", c.chatModel),
		attribute.Int("gemini.history_turns", len(history)),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w: %v", apperr.ErrProvider, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.chatModel)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(1000)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}

		cs := model.StartChat()
		cs.History = historyToContents(history)

		resp, err := cs.SendMessage(ctx, genai.Text(question))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
		}
		return "", fmt.Errorf("chat completion: %w: %v", apperr.ErrProvider, err)
	}

	resp := result.(*genai.GenerateContentResponse)
	answer := flattenResponse(resp)
	if answer == "" {
		return "", fmt.Errorf("chat completion: %w: empty response", apperr.ErrProvider)
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return answer, nil
}

// ExtractDocumentText re-derives text from PDF bytes using the vision path.
// This is the expensive OCR-style fallback for image-only or scanned PDFs and
// must only be called after structural extraction has failed.
func (c *Client) ExtractDocumentText(ctx context.Context, content []byte) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.extract_document")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w: %v", apperr.ErrProvider, err)
	}

	file, err := c.client.UploadFile(ctx, "", bytes.NewReader(content), &genai.UploadFileOptions{
		MIMEType: "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w: %v", apperr.ErrProvider, err)
	}
	defer c.client.DeleteFile(ctx, file.Name)

	model := c.client.GenerativeModel(c.chatModel)
	model.SetTemperature(0.1)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text("You are a precise document text extractor. Extract ALL text content from this PDF exactly as it appears, maintaining original formatting, line breaks, and structure. Do not summarize, interpret, or modify the content.")},
	}

	resp, err := model.GenerateContent(ctx,
		genai.FileData{URI: file.URI},
		genai.Text("Extract all text content from this PDF document."),
	)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", fmt.Errorf("vision extraction: %w: %v", apperr.ErrProvider, err)
	}

	text := flattenResponse(resp)
	if text == "" {
		return "", fmt.Errorf("vision extraction: %w: no text extracted", apperr.ErrProvider)
	}
	return text, nil
}

func historyToContents(history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return contents
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	var out string
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
	}
	return out
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
