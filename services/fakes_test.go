package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/raluca-web/ai-bot/internal/ai"
	"github.com/raluca-web/ai-bot/models"
)

// memoryStore is an in-memory VectorStore used to exercise the pipeline and
// QA engine without a database.
type memoryStore struct {
	mu        sync.Mutex
	dim       int
	documents map[primitive.ObjectID]models.Document
	chunks    []models.DocumentChunk

	failInsertChunks bool
	failSearch       bool
}

func newMemoryStore(dim int) *memoryStore {
	return &memoryStore{
		dim:       dim,
		documents: make(map[primitive.ObjectID]models.Document),
	}
}

func (s *memoryStore) InsertDocument(ctx context.Context, doc *models.Document) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	s.documents[doc.ID] = *doc
	return doc.ID, nil
}

func (s *memoryStore) InsertChunks(ctx context.Context, documentID primitive.ObjectID, chunks []models.DocumentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsertChunks {
		return errors.New("chunk insert failed")
	}
	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return errors.New("embedding dimension mismatch")
		}
		c.DocumentID = documentID
		s.chunks = append(s.chunks, c)
	}
	return nil
}

func (s *memoryStore) Search(ctx context.Context, queryEmbedding []float32, matchThreshold float64, matchCount int) ([]models.ChunkMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSearch {
		return nil, errors.New("search failed")
	}

	var matches []models.ChunkMatch
	for _, c := range s.chunks {
		sim := cosineSimilarity(queryEmbedding, c.Embedding)
		if sim < matchThreshold {
			continue
		}
		matches = append(matches, models.ChunkMatch{
			DocumentID: c.DocumentID,
			Content:    c.Content,
			ChunkIndex: c.ChunkIndex,
			Page:       c.Page,
			Similarity: sim,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if matchCount > 0 && len(matches) > matchCount {
		matches = matches[:matchCount]
	}
	return matches, nil
}

func (s *memoryStore) DeleteDocument(ctx context.Context, documentID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return ErrDocumentNotFound
	}
	delete(s.documents, documentID)
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *memoryStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]models.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	return docs, nil
}

// fakeEmbedder returns a deterministic unit vector per text so that identical
// texts are maximally similar and different texts are not.
type fakeEmbedder struct {
	dim     int
	failMsg string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.failMsg != "" {
		return nil, errors.New(e.failMsg)
	}
	vec := make([]float32, e.dim)
	var h uint32 = 2166136261
	for _, b := range []byte(text) {
		h ^= uint32(b)
		h *= 16777619
	}
	// Two non-zero components keep vectors distinguishable after normalization.
	vec[int(h)%e.dim] = 3
	vec[int(h>>8)%e.dim] = 1
	return vec, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// fakeExtractor returns a canned extraction without parsing anything.
type fakeExtractor struct {
	text        string
	pageCount   int
	pageOffsets []int
	err         error
}

func (e *fakeExtractor) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	if e.err != nil {
		return nil, e.err
	}
	offsets := e.pageOffsets
	if offsets == nil {
		offsets = []int{0}
	}
	return &Extraction{
		Text:        e.text,
		PageCount:   e.pageCount,
		PageOffsets: offsets,
		Method:      "fake",
	}, nil
}

// fakeCompleter records the prompt it was called with.
type fakeCompleter struct {
	answer   string
	err      error
	system   string
	history  []ai.Turn
	question string
	calls    int
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, history []ai.Turn, question string) (string, error) {
	f.calls++
	f.system = system
	f.history = history
	f.question = question
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// fakeMessages is an in-memory MessageStore.
type fakeMessages struct {
	mu     sync.Mutex
	turns  map[string][]models.ChatMessage
	failed bool
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{turns: make(map[string][]models.ChatMessage)}
}

func (m *fakeMessages) History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return nil, errors.New("history failed")
	}
	all := m.turns[conversationID]
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (m *fakeMessages) AppendTurn(ctx context.Context, conversationID, question, answer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[conversationID] = append(m.turns[conversationID],
		models.ChatMessage{ConversationID: conversationID, Role: "user", Content: question},
		models.ChatMessage{ConversationID: conversationID, Role: "assistant", Content: answer},
	)
	return nil
}
