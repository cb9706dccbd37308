package ai

import (
	"context"
	"os"
	"testing"

	"github.com/raluca-web/ai-bot/internal/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("GEMINI_API_KEY") == "" {
		t.Skip("GEMINI_API_KEY not set")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		t.Skipf("config load failed: %v", err)
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("client creation failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestEmbed(t *testing.T) {
	client := newTestClient(t)

	vec, err := client.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("embedding error: %v", err)
	}
	if len(vec) == 0 {
		t.Fatalf("empty embedding")
	}
}

func TestEmbedBatch(t *testing.T) {
	client := newTestClient(t)

	texts := []string{"first passage", "second passage"}
	vecs, err := client.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("batch embedding error: %v", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(vecs))
	}
}

func TestComplete(t *testing.T) {
	client := newTestClient(t)

	answer, err := client.Complete(context.Background(),
		"You are a helpful assistant. Answer in one short sentence.", nil, "What is 2+2?")
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	if answer == "" {
		t.Fatalf("empty answer")
	}
}

func TestHistoryToContents(t *testing.T) {
	contents := historyToContents([]Turn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Fatalf("expected user role, got %q", contents[0].Role)
	}
	if contents[1].Role != "model" {
		t.Fatalf("assistant turns must map to the model role, got %q", contents[1].Role)
	}
}
