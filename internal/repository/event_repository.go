package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"datagov-chat/internal/model"
)

// EventRepository persists conversation audit events (MySQL backend).
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) SaveEvent(ctx context.Context, event *model.ConversationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create conversation event failed: %w", err)
	}
	return nil
}
