package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"datagov-chat/internal/model"
)

// TurnRepository is the MySQL-backed session store. Appends to the same
// session are serialized through a row-locked max(seq) read inside one
// transaction; unrelated sessions do not block each other.
type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Append(ctx context.Context, sessionID, role, content string) (model.Turn, error) {
	turn := model.Turn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq uint64
		if err := tx.Raw(
			"SELECT COALESCE(MAX(seq), 0) FROM turns WHERE session_id = ? FOR UPDATE",
			sessionID,
		).Scan(&maxSeq).Error; err != nil {
			return err
		}
		turn.Seq = maxSeq + 1
		return tx.Create(&turn).Error
	})
	if err != nil {
		return model.Turn{}, fmt.Errorf("append turn failed: %w", err)
	}
	return turn, nil
}

func (r *TurnRepository) Read(ctx context.Context, sessionID string) ([]model.Turn, error) {
	var turns []model.Turn
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("read turns failed: %w", err)
	}
	return turns, nil
}

func (r *TurnRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.Turn{}).Error; err != nil {
		return fmt.Errorf("clear session turns failed: %w", err)
	}
	return nil
}
