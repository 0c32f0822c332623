package services

import (
	"log"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntityService owns onboarding: an entity, its live score record and its
// four stage rows come into existence together, and the badge engine gets
// one initial pass (signup and exclusivity badges).
type EntityService struct {
	DB     *gorm.DB
	Scores *ScoreService
	Stages *StageService
	Badges *BadgeService
}

func NewEntityService(db *gorm.DB, scores *ScoreService, stages *StageService, badges *BadgeService) *EntityService {
	return &EntityService{DB: db, Scores: scores, Stages: stages, Badges: badges}
}

// Onboard creates the entity with the next registration order and all of
// its trayectoria records. Idempotent on external_user_id: re-onboarding an
// existing account returns the existing entity.
func (s *EntityService) Onboard(externalUserID, name, kind string) (*models.Entity, error) {
	var existing models.Entity
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&existing).Error; err == nil {
		// A previous onboarding may have died between the entity insert and
		// its record set; the Ensure helpers are idempotent, so re-running
		// them here repairs that instead of stranding the entity.
		if err := s.ensureRecords(existing.ID); err != nil {
			return nil, err
		}
		return &existing, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if kind == "" {
		kind = "user"
	}

	var entity models.Entity
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Registration order is explicit state, assigned exactly once.
		// MAX+1 inside the transaction keeps it monotonic.
		var maxOrder int64
		if err := tx.Model(&models.Entity{}).
			Select("COALESCE(MAX(registration_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}

		entity = models.Entity{
			ID:                uuid.NewString(),
			ExternalUserID:    externalUserID,
			Name:              name,
			Kind:              kind,
			RegistrationOrder: maxOrder + 1,
		}
		return tx.Create(&entity).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.ensureRecords(entity.ID); err != nil {
		return nil, err
	}

	// First pass picks up registration-order exclusives like "Pionero".
	if _, err := s.Badges.EvaluateEntity(entity.ID); err != nil {
		log.Printf("[Entities] initial badge evaluation failed for %s: %v", entity.ID, err)
	}

	return &entity, nil
}

func (s *EntityService) ensureRecords(entityID string) error {
	if _, err := s.Scores.EnsureScoreRecord(entityID); err != nil {
		return err
	}
	return s.Stages.EnsureStageRecords(entityID)
}

// Get fetches one entity by id.
func (s *EntityService) Get(entityID string) (*models.Entity, error) {
	var entity models.Entity
	if err := s.DB.Where("id = ?", entityID).First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// GetByExternalID fetches one entity by its accounts-service id.
func (s *EntityService) GetByExternalID(externalUserID string) (*models.Entity, error) {
	var entity models.Entity
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}
	return &entity, nil
}

// BumpCounters applies activity-counter increments from the CRUD layer and
// re-runs the badge engine, since counter movement is what unlocks most
// badges.
func (s *EntityService) BumpCounters(entityID string, updates map[string]interface{}) error {
	result := s.DB.Model(&models.Entity{}).Where("id = ?", entityID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntityNotFound
	}
	if _, err := s.Badges.EvaluateEntity(entityID); err != nil {
		log.Printf("[Entities] badge evaluation after counter update failed for %s: %v", entityID, err)
	}
	return nil
}
