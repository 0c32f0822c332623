package services

import (
	"testing"

	"trayectoria-service/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens an in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Entity{},
		&models.ScoreRecord{},
		&models.ScoreHistoryEntry{},
		&models.BadgeDefinition{},
		&models.BadgeAward{},
		&models.StageScore{},
		&models.StageRating{},
		&models.Challenge{},
		&models.ChallengeParticipation{},
		&models.Vote{},
	))
	return db
}

// staticReader serves a fixed snapshot so badge tests control exact metric values.
type staticReader struct {
	snap models.MetricSnapshot
}

func (r staticReader) Snapshot(string) (models.MetricSnapshot, error) {
	return r.snap, nil
}

// captureNotifier records unlock events instead of delivering them.
type captureNotifier struct {
	events []BadgeUnlockedEvent
}

func (n *captureNotifier) BadgeUnlocked(event BadgeUnlockedEvent) {
	n.events = append(n.events, event)
}

func createTestEntity(t *testing.T, db *gorm.DB, id string, order int64) {
	t.Helper()
	entity := models.Entity{
		ID:                id,
		ExternalUserID:    "ext-" + id,
		Name:              "Entity " + id,
		Kind:              "user",
		RegistrationOrder: order,
	}
	require.NoError(t, db.Create(&entity).Error)
}
