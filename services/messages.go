package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/raluca-web/ai-bot/internal/apperr"
	"github.com/raluca-web/ai-bot/models"
)

// MessageStore persists conversation turns keyed by conversation id.
type MessageStore interface {
	History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error)
	AppendTurn(ctx context.Context, conversationID, question, answer string) error
}

type MongoMessageStore struct {
	messages *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{messages: db.Collection("messages")}
}

// History returns the most recent turns in chronological order.
func (s *MongoMessageStore) History(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	cursor, err := s.messages.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("load history: %w: %v", apperr.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	var recent []models.ChatMessage
	if err := cursor.All(ctx, &recent); err != nil {
		return nil, fmt.Errorf("load history: %w: %v", apperr.ErrStorage, err)
	}

	// Sorted newest-first for the limit; flip back to chronological order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *MongoMessageStore) AppendTurn(ctx context.Context, conversationID, question, answer string) error {
	now := time.Now()
	docs := []interface{}{
		models.ChatMessage{
			ID:             primitive.NewObjectID(),
			ConversationID: conversationID,
			Role:           "user",
			Content:        question,
			CreatedAt:      now,
		},
		models.ChatMessage{
			ID:             primitive.NewObjectID(),
			ConversationID: conversationID,
			Role:           "assistant",
			Content:        answer,
			CreatedAt:      now.Add(time.Millisecond),
		},
	}
	if _, err := s.messages.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("save turn: %w: %v", apperr.ErrStorage, err)
	}
	return nil
}
