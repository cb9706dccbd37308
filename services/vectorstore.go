package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/models"
)

// ErrDocumentNotFound is returned when an operation references a document id
// that does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// VectorStore persists documents and their embedded chunks and answers
// similarity queries. No in-memory state is authoritative.
type VectorStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) (primitive.ObjectID, error)
	InsertChunks(ctx context.Context, documentID primitive.ObjectID, chunks []models.DocumentChunk) error
	Search(ctx context.Context, queryEmbedding []float32, matchThreshold float64, matchCount int) ([]models.ChunkMatch, error)
	DeleteDocument(ctx context.Context, documentID primitive.ObjectID) error
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

// MongoVectorStore stores documents and chunks in MongoDB and performs
// brute-force cosine similarity search over the chunk collection.
type MongoVectorStore struct {
	documents *mongo.Collection
	chunks    *mongo.Collection
	dim       int
}

func NewMongoVectorStore(db *mongo.Database, dim int) *MongoVectorStore {
	return &MongoVectorStore{
		documents: db.Collection("documents"),
		chunks:    db.Collection("document_chunks"),
		dim:       dim,
	}
}

func (s *MongoVectorStore) InsertDocument(ctx context.Context, doc *models.Document) (primitive.ObjectID, error) {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if _, err := s.documents.InsertOne(ctx, doc); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert document: %w: %v", apperr.ErrStorage, err)
	}
	return doc.ID, nil
}

// InsertChunks bulk-inserts all chunks of one document. Every embedding must
// have the configured dimensionality; mixing dimensionalities would corrupt
// similarity search, so a mismatch rejects the whole batch.
func (s *MongoVectorStore) InsertChunks(ctx context.Context, documentID primitive.ObjectID, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(chunks))
	for i := range chunks {
		if len(chunks[i].Embedding) != s.dim {
			return fmt.Errorf("chunk %d embedding has %d dimensions, store expects %d: %w",
				chunks[i].ChunkIndex, len(chunks[i].Embedding), s.dim, apperr.ErrValidation)
		}
		chunks[i].DocumentID = documentID
		if chunks[i].ID.IsZero() {
			chunks[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, chunks[i])
	}

	if _, err := s.chunks.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert chunks: %w: %v", apperr.ErrStorage, err)
	}
	return nil
}

// Search scans all chunk embeddings and ranks them by cosine similarity
// against the query. Results below matchThreshold are dropped and at most
// matchCount are returned, in descending similarity order.
func (s *MongoVectorStore) Search(ctx context.Context, queryEmbedding []float32, matchThreshold float64, matchCount int) ([]models.ChunkMatch, error) {
	if len(queryEmbedding) != s.dim {
		return nil, fmt.Errorf("query embedding has %d dimensions, store expects %d: %w",
			len(queryEmbedding), s.dim, apperr.ErrValidation)
	}

	cursor, err := s.chunks.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{
			"document_id": 1,
			"content":     1,
			"chunk_index": 1,
			"page":        1,
			"embedding":   1,
		}))
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w: %v", apperr.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	var matches []models.ChunkMatch
	for cursor.Next(ctx) {
		var chunk models.DocumentChunk
		if err := cursor.Decode(&chunk); err != nil {
			continue
		}
		if len(chunk.Embedding) != s.dim {
			continue
		}

		similarity := cosineSimilarity(queryEmbedding, chunk.Embedding)
		if similarity < matchThreshold {
			continue
		}

		matches = append(matches, models.ChunkMatch{
			DocumentID: chunk.DocumentID,
			Content:    chunk.Content,
			ChunkIndex: chunk.ChunkIndex,
			Page:       chunk.Page,
			Similarity: similarity,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("search chunks: %w: %v", apperr.ErrStorage, err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if matchCount > 0 && len(matches) > matchCount {
		matches = matches[:matchCount]
	}
	return matches, nil
}

// DeleteDocument removes the document and all of its chunks. Chunks go first
// so a partial failure can never leave chunks referencing a missing document;
// a leftover chunk-less document row stays retryable.
func (s *MongoVectorStore) DeleteDocument(ctx context.Context, documentID primitive.ObjectID) error {
	if _, err := s.chunks.DeleteMany(ctx, bson.M{"document_id": documentID}); err != nil {
		return fmt.Errorf("delete chunks: %w: %v", apperr.ErrStorage, err)
	}

	result, err := s.documents.DeleteOne(ctx, bson.M{"_id": documentID})
	if err != nil {
		return fmt.Errorf("delete document: %w: %v", apperr.ErrStorage, err)
	}
	if result.DeletedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *MongoVectorStore) ListDocuments(ctx context.Context) ([]models.Document, error) {
	cursor, err := s.documents.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.M{"uploaded_at": -1}).
			SetProjection(bson.M{"content": 0}))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w: %v", apperr.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list documents: %w: %v", apperr.ErrStorage, err)
	}
	return docs, nil
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
