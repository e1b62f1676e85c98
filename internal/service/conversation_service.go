package service

import (
	"context"

	"qanoon-go/internal/model"
	"qanoon-go/internal/repository"
)

// ConversationService exposes stored session history to the HTTP layer.
type ConversationService interface {
	// GetHistory returns the session's messages, oldest first. When the
	// history store is disabled every session is empty.
	GetHistory(ctx context.Context, session string) ([]model.ChatMessage, error)
}

type conversationService struct {
	conversationRepo repository.ConversationRepository // nil when Redis is disabled
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService(conversationRepo repository.ConversationRepository) ConversationService {
	return &conversationService{conversationRepo: conversationRepo}
}

func (s *conversationService) GetHistory(ctx context.Context, session string) ([]model.ChatMessage, error) {
	if s.conversationRepo == nil {
		return []model.ChatMessage{}, nil
	}
	return s.conversationRepo.GetConversationHistory(ctx, session)
}
