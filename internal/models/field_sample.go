package models

import "gorm.io/gorm"

// FieldTest содержит все виды полей, нужна для проверки форм
type FieldTest struct {
	gorm.Model
	StringField  string         `gorm:"size:255"`
	IntegerField int
	ArrayField   []int          `gorm:"type:text;serializer:json"`
	HashField    map[string]int `gorm:"type:text;serializer:json"`
}
