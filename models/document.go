package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is one ingested PDF. It is created once by the ingestion pipeline
// and never updated; re-uploading the same file creates a new Document.
type Document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title      string             `bson:"title" json:"title"`
	Filename   string             `bson:"filename" json:"filename"`
	FileSize   int64              `bson:"file_size" json:"file_size"`
	PageCount  int                `bson:"page_count" json:"page_count"`
	Content    string             `bson:"content" json:"-"`
	ChunkCount int                `bson:"chunk_count" json:"chunk_count"`
	UploadedAt time.Time          `bson:"uploaded_at" json:"uploaded_at"`
}

// DocumentChunk is a fixed-size slice of a document's extracted text together
// with its embedding vector. ChunkIndex is the 0-based position of the chunk
// in the document's concatenated text; Page is the 1-based page containing the
// chunk's first character.
type DocumentChunk struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	Content    string             `bson:"content" json:"content"`
	Embedding  []float32          `bson:"embedding" json:"-"`
	ChunkIndex int                `bson:"chunk_index" json:"chunk_index"`
	Page       int                `bson:"page" json:"page"`
}

// ChunkMatch is one similarity-search hit, ordered by descending cosine
// similarity against the query embedding.
type ChunkMatch struct {
	DocumentID primitive.ObjectID `json:"document_id"`
	Content    string             `json:"content"`
	ChunkIndex int                `json:"chunk_index"`
	Page       int                `json:"page"`
	Similarity float64            `json:"similarity"`
}

// ChatMessage is one stored conversation turn.
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	Role           string             `bson:"role" json:"role"` // "user" or "assistant"
	Content        string             `bson:"content" json:"content"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// Source identifies where an answer was grounded.
type Source struct {
	DocumentID string `json:"documentId"`
	PageNumber int    `json:"pageNumber"`
	ChunkIndex int    `json:"chunkIndex"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question       string `json:"question" binding:"required"`
	ConversationID string `json:"conversationId,omitempty"`
}

// ChatResponse is the body of a successful chat answer.
type ChatResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ConversationID string   `json:"conversationId,omitempty"`
}

// UploadResponse is the body of a successful document upload.
type UploadResponse struct {
	Success  bool           `json:"success"`
	Document UploadDocument `json:"document"`
}

// UploadDocument summarizes the ingested document for the upload response.
type UploadDocument struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
	Pages  int    `json:"pages"`
}
