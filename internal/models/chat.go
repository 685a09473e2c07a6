package models

import "time"

// ChatMessage is the provider-agnostic message shape exchanged with the chat endpoint and passed down to the
// LLM services.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleSystem carries the persona prompt built from the portfolio profile.
	RoleSystem Role = "system"
	// RoleUser represents a visitor message.
	RoleUser Role = "user"
	// RoleAssistant represents a reply generated on behalf of the portfolio owner.
	RoleAssistant Role = "assistant"
)

// ChatRequest is the body of a POST to the chat endpoint. The widget always sends a single user message; the
// server answers the last user message in the list.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	UserID   string        `json:"user_id,omitempty"`
}

// ChatResponse is the body returned by the chat endpoint. Response is rendered verbatim as the bot reply.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Source describes where a reply was grounded.
type Source struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Health is the body of the health endpoints. Fields that an endpoint does not report are omitted.
type Health struct {
	Status        string     `json:"status"`
	Message       string     `json:"message,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Environment   string     `json:"environment,omitempty"`
	LLMConfigured *bool      `json:"llm_configured,omitempty"`
}

// APIError is the JSON body written with every non-2xx response of the API.
type APIError struct {
	Detail string `json:"detail"`
}

// LastUserMessage returns the most recent message with RoleUser, scanning from the end of the list.
func LastUserMessage(messages []ChatMessage) (ChatMessage, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i], true
		}
	}
	return ChatMessage{}, false
}
