package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email string   `gorm:"uniqueIndex;size:255;not null" validate:"required,email"`
	Name  string   `gorm:"size:100"`
	Roles []string `gorm:"type:text;serializer:json"`
}
