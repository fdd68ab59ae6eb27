package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"voicemail-relay-go/internal/model"
)

// ErrNotFound is returned when a delivery log entry does not exist
var ErrNotFound = errors.New("delivery log not found")

// Repository stores the delivery audit trail
type Repository struct {
	db *gorm.DB
}

// New creates a repository on top of an open, migrated connection
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordDelivery appends an audit row
func (r *Repository) RecordDelivery(ctx context.Context, entry model.DeliveryLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	result := r.db.WithContext(ctx).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("failed to record delivery: %w", result.Error)
	}
	return nil
}

// ListDeliveries returns the most recent entries first. messageID filters
// by voicemail when non-empty.
func (r *Repository) ListDeliveries(ctx context.Context, messageID string, limit int) ([]model.DeliveryLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit)
	if messageID != "" {
		query = query.Where("message_id = ?", messageID)
	}

	var logs []model.DeliveryLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return logs, nil
}

// GetDelivery returns a single entry by ID
func (r *Repository) GetDelivery(ctx context.Context, id uint) (*model.DeliveryLog, error) {
	var entry model.DeliveryLog
	result := r.db.WithContext(ctx).First(&entry, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &entry, nil
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
