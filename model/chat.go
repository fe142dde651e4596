package model

import "time"

// ChatSession represents a chat session between a user and the assistant.
// Each user has only one session.
type ChatSession struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int64     `json:"userId" gorm:"uniqueIndex"`
	Title     string    `json:"title" gorm:"size:255"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is a single message in a chat session.
type ChatMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID int64     `json:"sessionId" gorm:"index"`
	Role      string    `json:"role" gorm:"size:32"` // "user", "assistant" or "system"
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessageRequest is the request body for sending a message.
type ChatMessageRequest struct {
	Content string `json:"content"`
}

// ChatMessageResponse pairs the stored user message with the assistant reply.
type ChatMessageResponse struct {
	UserMessage      *ChatMessage `json:"userMessage"`
	AssistantMessage *ChatMessage `json:"assistantMessage"`
	PlaylistID       string       `json:"playlistId,omitempty"` // set when the turn produced a playlist
}

// ChatHistoryResponse is the response for chat history.
type ChatHistoryResponse struct {
	Session  *ChatSession   `json:"session"`
	Messages []*ChatMessage `json:"messages"`
}

// OpenAIChatMessage represents a message in the OpenAI chat format.
type OpenAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIChatRequest represents a request to an OpenAI-compatible chat API.
type OpenAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []OpenAIChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stream      bool                `json:"stream"`
}

// OpenAIChatResponse represents a non-streaming chat completion response.
type OpenAIChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// OpenAIStreamChunk represents a streaming chunk from the chat API.
type OpenAIStreamChunk struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index int `json:"index"`
		Delta struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// PlaylistEdit carries assistant-produced editing instructions for an
// existing playlist.
type PlaylistEdit struct {
	SongsToAdd     []string `json:"songsToAdd,omitempty"`    // "Title - Artist" entries
	SongsToRemove  []string `json:"songsToRemove,omitempty"` // partial title/artist matches
	NewDescription string   `json:"newDescription,omitempty"`
}
