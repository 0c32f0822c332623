package services

import (
	"log"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedBadgeCatalog loads the built-in badge definitions. Operators are
// validated here — a malformed catalog entry is logged and skipped, never
// written, so evaluation time only ever sees the closed operator set.
// Existing codes are left untouched (re-seeding is a no-op).
func SeedBadgeCatalog(db *gorm.DB) error {
	var seeded, skipped int
	for _, def := range models.BadgeCatalog {
		if _, err := ParseOperator(def.CriteriaOperator); err != nil {
			log.Printf("[Seed] skipping badge %s: %v", def.Code, err)
			skipped++
			continue
		}
		def.ID = uuid.NewString()
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&def)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			seeded++
		}
	}
	if seeded > 0 || skipped > 0 {
		log.Printf("[Seed] badge catalog: %d seeded, %d skipped", seeded, skipped)
	}
	return nil
}
