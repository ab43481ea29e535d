package database

import (
	"context"
	"fmt"

	"recordadmin/internal/admin"
	"recordadmin/internal/models"

	"gorm.io/gorm"
)

// HistorySink пишет журнал изменений в таблицу histories.
type HistorySink struct {
	db *gorm.DB
}

func NewHistorySink(db *gorm.DB) *HistorySink {
	return &HistorySink{db: db}
}

func (s *HistorySink) Record(ctx context.Context, entry admin.AuditEntry) error {
	record := models.History{
		Table:   entry.Table,
		Item:    entry.Item,
		Message: entry.Message,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Entries читает журнал записи, новые сверху.
func (s *HistorySink) Entries(ctx context.Context, table string, item uint) ([]models.History, error) {
	var logs []models.History
	if err := s.db.WithContext(ctx).
		Where("table_name = ? AND item = ?", table, item).
		Order("created_at desc, id desc").
		Limit(200).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return logs, nil
}
