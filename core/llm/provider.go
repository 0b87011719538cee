package llm

import (
	"context"
	"time"
)

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one piece of a turn: plain text or an inline image carried as a
// base64 data URL.
type Part struct {
	Text     string
	ImageURL string
}

// Turn is an ordered role-tagged unit of conversation.
type Turn struct {
	Role  Role
	Parts []Part
}

// TextTurn builds a single-part text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

type RequestConfig struct {
	Temperature float32
	MaxTokens   int
	// MaxAttempts bounds the provider's own retry loop. Zero means a
	// single attempt.
	MaxAttempts int
}

// Provider is a chat-completion backend. Generate returns free text;
// GenerateBool requests a schema-constrained response with a single boolean
// field and returns its value. Both report total token usage.
type Provider interface {
	ID() string

	Generate(ctx context.Context, turns []Turn, cfg RequestConfig) (string, int, error)

	GenerateBool(ctx context.Context, turns []Turn, field string, cfg RequestConfig) (bool, int, error)
}

const retryBaseDelay = 500 * time.Millisecond

// withRetry runs fn up to attempts times with exponential backoff between
// failures and returns the last error.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	delay := retryBaseDelay
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
