package database

import (
	"context"
	"testing"

	"recordadmin/internal/admin"
	"recordadmin/internal/config"
	"recordadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBDSN: "file::memory:", LogLevel: "error"}
	db, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.History{}))
	assert.True(t, db.Migrator().HasTable("fans_teams"))
}

func TestSeed_Idempotent(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)

	require.NoError(t, Seed(db, zap.NewNop()))
	require.NoError(t, Seed(db, zap.NewNop()))

	var leagues, players, balls int64
	require.NoError(t, db.Model(&models.League{}).Count(&leagues).Error)
	require.NoError(t, db.Model(&models.Player{}).Count(&players).Error)
	require.NoError(t, db.Model(&models.Ball{}).Count(&balls).Error)
	assert.Equal(t, int64(1), leagues)
	assert.Equal(t, int64(2), players)
	assert.Equal(t, int64(3), balls)

	var team models.Team
	require.NoError(t, db.Preload("Fans").First(&team).Error)
	assert.Len(t, team.Fans, 2)
}

func TestHistorySink(t *testing.T) {
	db, err := OpenMemory()
	require.NoError(t, err)
	sink := NewHistorySink(db)
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, admin.AuditEntry{Table: "players", Item: 1, Message: "Changed name"}))
	require.NoError(t, sink.Record(ctx, admin.AuditEntry{Table: "players", Item: 1, Message: "Changed number"}))
	require.NoError(t, sink.Record(ctx, admin.AuditEntry{Table: "teams", Item: 1, Message: "Changed manager"}))

	logs, err := sink.Entries(ctx, "players", 1)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Changed number", logs[0].Message)
	assert.Equal(t, "Changed name", logs[1].Message)

	logs, err = sink.Entries(ctx, "players", 2)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
