package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"qanoon-go/internal/model"
)

// historyLimit caps how many messages a session keeps.
const historyLimit = 20

// historyTTL expires idle sessions.
const historyTTL = 7 * 24 * time.Hour

// ConversationRepository stores per-session conversation history.
type ConversationRepository interface {
	GetConversationHistory(ctx context.Context, session string) ([]model.ChatMessage, error)
	UpdateConversationHistory(ctx context.Context, session string, messages []model.ChatMessage) error
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository creates a Redis-backed ConversationRepository.
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

// GetConversationHistory fetches the session's history; a session with no
// stored history yields an empty slice.
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, session string) ([]model.ChatMessage, error) {
	key := fmt.Sprintf("conversation:%s", session)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// UpdateConversationHistory stores the session's history, keeping the
// most recent historyLimit messages.
func (r *redisConversationRepository) UpdateConversationHistory(ctx context.Context, session string, messages []model.ChatMessage) error {
	key := fmt.Sprintf("conversation:%s", session)
	if len(messages) > historyLimit {
		messages = messages[len(messages)-historyLimit:]
	}
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	if err := r.redisClient.Set(ctx, key, jsonData, historyTTL).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
