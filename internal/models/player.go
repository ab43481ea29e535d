package models

import "gorm.io/gorm"

type Player struct {
	gorm.Model
	TeamID  *uint
	DraftID *uint
	Draft   *Draft

	Name     string `gorm:"size:100;not null" validate:"required"`
	Number   int    `gorm:"not null" validate:"gte=0,lt=100"`
	Position string `gorm:"size:50"`
	Notes    string `gorm:"type:text"`
}

// Draft: драфт, через который игрок попал в лигу
type Draft struct {
	gorm.Model
	Round   int    `gorm:"not null" validate:"gte=1"`
	Pick    int    `gorm:"not null" validate:"gte=1"`
	College string `gorm:"size:100"`
}
