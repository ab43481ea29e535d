package models

import (
	"strconv"

	"gorm.io/gorm"
)

// Ball хранится в одной таблице с подтипами, подтип различается колонкой type.
type Ball struct {
	gorm.Model
	Type  string `gorm:"size:50;index"`
	Color string `gorm:"size:50;not null" validate:"required"`
}

// ToParam: мяч адресуется как "12-red"
func (b Ball) ToParam() string {
	return strconv.FormatUint(uint64(b.ID), 10) + "-" + b.Color
}

type Hardball struct {
	Ball
}

func (Hardball) TableName() string { return "balls" }

type Softball struct {
	Ball
}

func (Softball) TableName() string { return "balls" }
