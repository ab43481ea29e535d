package models

import "gorm.io/gorm"

type League struct {
	gorm.Model
	Name      string `gorm:"size:100;not null" validate:"required"`
	Divisions []Division
}

type Division struct {
	gorm.Model
	LeagueID *uint
	Name     string `gorm:"size:100;not null" validate:"required"`
}

type Team struct {
	gorm.Model
	DivisionID *uint
	Name       string `gorm:"size:100;not null" validate:"required"`
	Manager    string `gorm:"size:100"`

	Players []Player
	Fans    []Fan `gorm:"many2many:fans_teams;"`
}

type Fan struct {
	gorm.Model
	Name string `gorm:"size:100;not null" validate:"required"`
}
