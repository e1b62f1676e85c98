package model

import "time"

// ChatMessage is a single conversation message stored in Redis.
type ChatMessage struct {
	Role      string    `json:"role"` // "system", "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
