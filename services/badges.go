package services

import (
	"errors"
	"log"
	"time"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeService is the unlock engine: it walks the declarative catalog for
// badges an entity doesn't hold yet, evaluates each criterion against the
// metric snapshot, and awards at most once.
type BadgeService struct {
	DB       *gorm.DB
	Reader   MetricSnapshotReader
	Notifier BadgeNotifier
}

func NewBadgeService(db *gorm.DB, reader MetricSnapshotReader, notifier BadgeNotifier) *BadgeService {
	return &BadgeService{DB: db, Reader: reader, Notifier: notifier}
}

// EvaluateEntity checks every active, not-yet-held badge against the
// entity's current snapshot and returns the badges awarded by this run.
// A malformed definition or missing metric never aborts the batch: that
// badge degrades to "no change" and the rest keep evaluating.
func (s *BadgeService) EvaluateEntity(entityID string) ([]models.BadgeDefinition, error) {
	snap, err := s.Reader.Snapshot(entityID)
	if err != nil {
		return nil, err
	}

	// Codes already held (active awards only; revoked awards free the slot
	// for display purposes but the unique index still blocks re-award —
	// revocation is a soft state, not a delete).
	var held []string
	if err := s.DB.Model(&models.BadgeAward{}).
		Where("entity_id = ? AND revoked = ?", entityID, false).
		Pluck("badge_code", &held).Error; err != nil {
		return nil, err
	}
	heldSet := make(map[string]bool, len(held))
	for _, code := range held {
		heldSet[code] = true
	}

	var definitions []models.BadgeDefinition
	if err := s.DB.Where("is_active = ?", true).Order("created_at ASC").Find(&definitions).Error; err != nil {
		return nil, err
	}

	var awarded []models.BadgeDefinition
	for _, def := range definitions {
		if heldSet[def.Code] {
			continue
		}
		if def.MaxAwards != nil && def.AwardCount >= int64(*def.MaxAwards) {
			continue // exclusivity exhausted
		}

		op, err := ParseOperator(def.CriteriaOperator)
		if err != nil {
			// Configuration error, not a runtime failure: skip this badge,
			// keep evaluating the rest.
			log.Printf("[Badges] skipping %s: %v", def.Code, err)
			continue
		}

		if !snap.Has(def.CriteriaMetric) {
			log.Printf("[Badges] %s references metric %q absent from snapshot, treating as 0", def.Code, def.CriteriaMetric)
		}
		if !op.Evaluate(snap.Value(def.CriteriaMetric), def.CriteriaValue) {
			continue
		}

		ok, err := s.award(entityID, def)
		if err != nil {
			return awarded, err
		}
		if ok {
			awarded = append(awarded, def)
			if s.Notifier != nil {
				s.Notifier.BadgeUnlocked(BadgeUnlockedEvent{
					EntityID:  entityID,
					BadgeCode: def.Code,
					Context:   "criteria_met",
				})
			}
		}
	}

	return awarded, nil
}

// errAwardSkipped aborts the award transaction without surfacing an error:
// the cap was exhausted or another writer got there first.
var errAwardSkipped = errors.New("award skipped")

// award inserts the (entity, badge) pair. The counter update is conditional
// on the cap and runs in the same transaction as the insert, so two
// evaluations racing past the in-memory AwardCount check still cannot push
// award_count past max_awards. A concurrent duplicate hits the unique index,
// is swallowed by DO NOTHING, and rolls the counter bump back with the
// transaction — the second writer simply reports "not newly awarded".
func (s *BadgeService) award(entityID string, def models.BadgeDefinition) (bool, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		counter := tx.Model(&models.BadgeDefinition{}).Where("code = ?", def.Code)
		if def.MaxAwards != nil {
			counter = counter.Where("award_count < ?", *def.MaxAwards)
		}
		result := counter.UpdateColumn("award_count", gorm.Expr("award_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAwardSkipped
		}

		award := models.BadgeAward{
			ID:        uuid.NewString(),
			EntityID:  entityID,
			BadgeCode: def.Code,
		}
		insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return errAwardSkipped
		}
		return nil
	})
	if errors.Is(err, errAwardSkipped) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RevokeAward flips the award to its revoked soft state. The row stays: the
// uniqueness invariant (and the audit trail) outlive the revocation.
func (s *BadgeService) RevokeAward(entityID, badgeCode string) error {
	now := time.Now()
	result := s.DB.Model(&models.BadgeAward{}).
		Where("entity_id = ? AND badge_code = ? AND revoked = ?", entityID, badgeCode, false).
		Updates(map[string]interface{}{"revoked": true, "revoked_at": &now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// BadgeView is the API projection of one catalog entry for one entity.
type BadgeView struct {
	ID              string     `json:"id"`
	Nombre          string     `json:"nombre"`
	Descripcion     string     `json:"descripcion"`
	Icono           string     `json:"icono"`
	Color           string     `json:"color"`
	Desbloqueado    bool       `json:"desbloqueado"`
	FechaDesbloqueo *time.Time `json:"fecha_desbloqueo,omitempty"`
}

// ListForEntity returns the full catalog with unlock state. Secret badges
// stay masked until unlocked.
func (s *BadgeService) ListForEntity(entityID string) ([]BadgeView, error) {
	var entity models.Entity
	if err := s.DB.Select("id").Where("id = ?", entityID).First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	var definitions []models.BadgeDefinition
	if err := s.DB.Where("is_active = ?", true).Order("created_at ASC").Find(&definitions).Error; err != nil {
		return nil, err
	}

	var awards []models.BadgeAward
	if err := s.DB.Where("entity_id = ? AND revoked = ?", entityID, false).Find(&awards).Error; err != nil {
		return nil, err
	}
	awardedAt := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		awardedAt[a.BadgeCode] = a.AwardedAt
	}

	views := make([]BadgeView, 0, len(definitions))
	for _, def := range definitions {
		at, unlocked := awardedAt[def.Code]
		view := BadgeView{
			ID:           def.ID,
			Nombre:       def.Name,
			Descripcion:  def.Description,
			Icono:        def.Icon,
			Color:        def.Color,
			Desbloqueado: unlocked,
		}
		if unlocked {
			t := at
			view.FechaDesbloqueo = &t
		} else if def.Secret {
			view.Nombre = "???"
			view.Descripcion = "Logro secreto"
			view.Icono = "lock"
		}
		views = append(views, view)
	}
	return views, nil
}
