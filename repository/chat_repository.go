package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"BuggyFM/model"
)

// ChatRepository defines the interface for chat data operations.
type ChatRepository interface {
	// Session operations
	GetOrCreateSession(userID int64) (*model.ChatSession, error)
	GetSessionByUserID(userID int64) (*model.ChatSession, error)

	// Message operations
	CreateMessage(message *model.ChatMessage) (int64, error)
	GetMessagesBySessionID(sessionID int64, limit int) ([]*model.ChatMessage, error)
	DeleteMessagesBySessionID(sessionID int64) error
}

// gormChatRepository implements ChatRepository on top of GORM.
type gormChatRepository struct {
	db *gorm.DB
}

// NewGormChatRepository creates a new gormChatRepository.
func NewGormChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// GetOrCreateSession gets an existing session for a user or creates a new one.
// Each user keeps a single session for their assistant history.
func (r *gormChatRepository) GetOrCreateSession(userID int64) (*model.ChatSession, error) {
	session, err := r.GetSessionByUserID(userID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &model.ChatSession{UserID: userID, Title: "Music Assistant"}
	if err := r.db.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	return session, nil
}

// GetSessionByUserID retrieves a session by user ID.
func (r *gormChatRepository) GetSessionByUserID(userID int64) (*model.ChatSession, error) {
	session := &model.ChatSession{}
	err := r.db.Where("user_id = ?", userID).First(session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Session not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat session for user %d: %w", userID, err)
	}
	return session, nil
}

// CreateMessage stores a single chat message.
func (r *gormChatRepository) CreateMessage(message *model.ChatMessage) (int64, error) {
	if err := r.db.Create(message).Error; err != nil {
		return 0, fmt.Errorf("failed to create chat message: %w", err)
	}
	return message.ID, nil
}

// GetMessagesBySessionID returns the most recent messages of a session in
// chronological order. A non-positive limit returns everything.
func (r *gormChatRepository) GetMessagesBySessionID(sessionID int64, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	query := r.db.Where("session_id = ?", sessionID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat messages for session %d: %w", sessionID, err)
	}

	// Reverse into chronological order for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// DeleteMessagesBySessionID clears a session's history.
func (r *gormChatRepository) DeleteMessagesBySessionID(sessionID int64) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("failed to delete chat messages for session %d: %w", sessionID, err)
	}
	return nil
}
