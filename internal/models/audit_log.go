package models

import "time"

// History это запись журнала изменений, создаётся один раз и больше не меняется
type History struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time

	Table   string `gorm:"column:table_name;size:50;not null;index:idx_history_item"`
	Item    uint   `gorm:"not null;index:idx_history_item"`
	Message string `gorm:"type:text"`
}

func (History) TableName() string { return "histories" }
