package database_test

import (
	"context"
	"testing"

	"wellness-bot/internal/database"
	"wellness-bot/internal/database/dbtest"
	"wellness-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := dbtest.Open(t)

	for _, table := range []string{
		"moderation_rules", "user_warnings", "wellness_checks", "user_data",
		"mood_entries", "affirmations", "staff_members", "member_directory", "operation_logs",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.UserWarning{}, "idx_warning_lookup"))
	assert.True(t, db.Migrator().HasIndex(&models.WellnessCheck{}, "idx_check_sweep"))
}

func TestPing(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.Ping(context.Background(), db))
	require.NoError(t, database.PingWithRetry(context.Background(), db, 2))
	assert.Contains(t, database.Stats(db), "open:")
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := database.Open(database.Config{Driver: "oracle"})
	require.Error(t, err)
}
