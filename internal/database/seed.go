package database

import (
	"fmt"

	"recordadmin/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed наполняет пустую базу демонстрационными записями.
// Повторный запуск ничего не делает.
func Seed(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.League{}).Count(&count).Error; err != nil {
		return fmt.Errorf("check seed: %w", err)
	}
	if count > 0 {
		// данные уже есть, ничего не делаем
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		league := models.League{Name: "American League"}
		if err := tx.Create(&league).Error; err != nil {
			return fmt.Errorf("seed league: %w", err)
		}

		divisions := []models.Division{
			{Name: "East", LeagueID: &league.ID},
			{Name: "Central", LeagueID: &league.ID},
			{Name: "West", LeagueID: &league.ID},
		}
		if err := tx.Create(&divisions).Error; err != nil {
			return fmt.Errorf("seed divisions: %w", err)
		}

		fans := []models.Fan{{Name: "Annie Savoy"}, {Name: "Crash Davis"}}
		if err := tx.Create(&fans).Error; err != nil {
			return fmt.Errorf("seed fans: %w", err)
		}

		team := models.Team{
			Name:       "New York Yankees",
			Manager:    "Joe Torre",
			DivisionID: &divisions[0].ID,
			Fans:       fans,
		}
		if err := tx.Create(&team).Error; err != nil {
			return fmt.Errorf("seed team: %w", err)
		}

		draft := models.Draft{Round: 1, Pick: 6, College: "Kalamazoo Central"}
		if err := tx.Create(&draft).Error; err != nil {
			return fmt.Errorf("seed draft: %w", err)
		}

		players := []models.Player{
			{Name: "Derek Jeter", Number: 2, Position: "Shortstop", TeamID: &team.ID, DraftID: &draft.ID},
			{Name: "Mariano Rivera", Number: 42, Position: "Pitcher", TeamID: &team.ID},
		}
		if err := tx.Create(&players).Error; err != nil {
			return fmt.Errorf("seed players: %w", err)
		}

		balls := []models.Ball{
			{Type: "Hardball", Color: "white"},
			{Type: "Softball", Color: "yellow"},
			{Color: "red"},
		}
		if err := tx.Create(&balls).Error; err != nil {
			return fmt.Errorf("seed balls: %w", err)
		}

		user := models.User{Email: "admin@example.com", Name: "Admin", Roles: []string{"admin", "user"}}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed user: %w", err)
		}

		sample := models.FieldTest{StringField: "sample", IntegerField: 7, ArrayField: []int{1, 2}, HashField: map[string]int{"a": 1}}
		if err := tx.Create(&sample).Error; err != nil {
			return fmt.Errorf("seed field test: %w", err)
		}

		log.Info("seeded demo data",
			zap.Uint("league_id", league.ID),
			zap.Int("players", len(players)),
			zap.Int("balls", len(balls)))
		return nil
	})
}
