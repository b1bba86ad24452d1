// Package store is the durable document store behind the realtime core.
// The core only sees the narrow Store interface; everything else in this
// package is the Postgres implementation of it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"collabboard/internal/model"
)

// ErrNotFound 보드 없음
var ErrNotFound = errors.New("whiteboard not found")

// Store is what the realtime core consumes from the document store.
type Store interface {
	// GetElements returns the persisted element sequence, or ErrNotFound
	// if the whiteboard does not exist.
	GetElements(ctx context.Context, whiteboardID string) ([]model.Element, error)
	// PutElements replaces the persisted element sequence wholesale.
	PutElements(ctx context.Context, whiteboardID string, elements []model.Element) error
	// IsParticipant reports whether the user may attach to the whiteboard.
	// Returns ErrNotFound for an unknown whiteboard.
	IsParticipant(ctx context.Context, whiteboardID, username string) (bool, error)
}

// GormStore Postgres 구현
type GormStore struct {
	db *gorm.DB
}

// NewGormStore GormStore 생성
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetElements loads and decodes the jsonb content column.
func (s *GormStore) GetElements(ctx context.Context, whiteboardID string) ([]model.Element, error) {
	var board model.Whiteboard
	err := s.db.WithContext(ctx).Select("id", "content").Where("id = ?", whiteboardID).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load whiteboard %s: %w", whiteboardID, err)
	}

	elements := make([]model.Element, 0)
	if board.Content != "" {
		if err := json.Unmarshal([]byte(board.Content), &elements); err != nil {
			return nil, fmt.Errorf("decode whiteboard %s content: %w", whiteboardID, err)
		}
	}
	return elements, nil
}

// PutElements writes the full element array back as jsonb.
func (s *GormStore) PutElements(ctx context.Context, whiteboardID string, elements []model.Element) error {
	if elements == nil {
		elements = []model.Element{}
	}

	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("encode whiteboard %s content: %w", whiteboardID, err)
	}

	result := s.db.WithContext(ctx).Model(&model.Whiteboard{}).
		Where("id = ?", whiteboardID).
		Update("content", string(data))
	if result.Error != nil {
		return fmt.Errorf("save whiteboard %s: %w", whiteboardID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsParticipant checks membership by username.
func (s *GormStore) IsParticipant(ctx context.Context, whiteboardID, username string) (bool, error) {
	var exists int64
	err := s.db.WithContext(ctx).Model(&model.Whiteboard{}).Where("id = ?", whiteboardID).Count(&exists).Error
	if err != nil {
		return false, fmt.Errorf("check whiteboard %s: %w", whiteboardID, err)
	}
	if exists == 0 {
		return false, ErrNotFound
	}

	var count int64
	err = s.db.WithContext(ctx).Table("whiteboard_participants").
		Joins("JOIN users ON users.id = whiteboard_participants.user_id").
		Where("whiteboard_participants.whiteboard_id = ? AND users.username = ?", whiteboardID, username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check participant %s on %s: %w", username, whiteboardID, err)
	}
	return count > 0, nil
}
