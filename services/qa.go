package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/raluca-web/ai-bot/internal/ai"
	"github.com/raluca-web/ai-bot/internal/logger"
	"github.com/raluca-web/ai-bot/models"
)

const qaSystemPrompt = `You are a helpful AI assistant that answers questions based on the user's uploaded documents. Your responses should be:
- Clear and conversational, like talking to a human
- Helpful and informative
- Based strictly on the provided document context
- Honest when you don't have enough information

If the context doesn't contain relevant information to answer the question, politely say so and suggest what information might be helpful.

Document Context:
%s`

const noContextNotice = "No relevant document context available. Tell the user you don't have enough information in the uploaded documents to answer, and do not invent an answer."

// Completer produces a single grounded chat completion.
type Completer interface {
	Complete(ctx context.Context, system string, history []ai.Turn, question string) (string, error)
}

// AnswerResult is the outcome of one retrieval-augmented answer.
type AnswerResult struct {
	Answer  string
	Sources []models.Source
}

// QAEngine answers questions grounded in the ingested documents: embed the
// question, run a similarity search, assemble a context block and make one
// non-streaming completion call.
type QAEngine struct {
	embedder       Embedder
	store          VectorStore
	completer      Completer
	messages       MessageStore
	matchThreshold float64
	matchCount     int
	historyTurns   int
}

func NewQAEngine(embedder Embedder, store VectorStore, completer Completer, messages MessageStore, threshold float64, count, historyTurns int) *QAEngine {
	return &QAEngine{
		embedder:       embedder,
		store:          store,
		completer:      completer,
		messages:       messages,
		matchThreshold: threshold,
		matchCount:     count,
		historyTurns:   historyTurns,
	}
}

// Answer runs the retrieval pipeline for one question. A similarity-search
// failure degrades to answering without context instead of aborting; provider
// failures propagate.
func (e *QAEngine) Answer(ctx context.Context, question, conversationID string) (*AnswerResult, error) {
	tracer := otel.Tracer("qa-engine")
	ctx, span := tracer.Start(ctx, "qa.answer")
	defer span.End()

	queryEmbedding, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := e.store.Search(ctx, queryEmbedding, e.matchThreshold, e.matchCount)
	if err != nil {
		logger.Warn("Similarity search failed, answering without context", "error", err)
		matches = nil
	}
	span.SetAttributes(attribute.Int("qa.matched_chunks", len(matches)))

	system := fmt.Sprintf(qaSystemPrompt, contextBlock(matches))

	history, err := e.loadHistory(ctx, conversationID)
	if err != nil {
		logger.Warn("Failed to load conversation history", "conversation_id", conversationID, "error", err)
		history = nil
	}

	answer, err := e.completer.Complete(ctx, system, history, question)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if conversationID != "" {
		if err := e.messages.AppendTurn(ctx, conversationID, question, answer); err != nil {
			logger.Warn("Failed to persist conversation turn", "conversation_id", conversationID, "error", err)
		}
	}

	sources := make([]models.Source, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, models.Source{
			DocumentID: m.DocumentID.Hex(),
			PageNumber: m.Page,
			ChunkIndex: m.ChunkIndex,
		})
	}

	return &AnswerResult{Answer: answer, Sources: sources}, nil
}

// contextBlock concatenates matched chunk contents in descending-similarity
// order; with no matches the prompt explicitly states the absence of grounding
// context so the model admits insufficient information instead of fabricating.
func contextBlock(matches []models.ChunkMatch) string {
	if len(matches) == 0 {
		return noContextNotice
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n\n")
}

func (e *QAEngine) loadHistory(ctx context.Context, conversationID string) ([]ai.Turn, error) {
	if conversationID == "" {
		return nil, nil
	}

	stored, err := e.messages.History(ctx, conversationID, e.historyTurns)
	if err != nil {
		return nil, err
	}

	turns := make([]ai.Turn, 0, len(stored))
	for _, msg := range stored {
		turns = append(turns, ai.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns, nil
}
