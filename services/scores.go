package services

import (
	"log"
	"time"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreService is the aggregator: it folds directional rating inputs into
// the live ScoreRecord, keeps the append-only history, and computes the
// population percentile.
type ScoreService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewScoreService(db *gorm.DB, badges *BadgeService) *ScoreService {
	return &ScoreService{DB: db, Badges: badges}
}

// EnsureScoreRecord creates the live record if missing (idempotent).
func (s *ScoreService) EnsureScoreRecord(entityID string) (*models.ScoreRecord, error) {
	var record models.ScoreRecord
	err := s.DB.Where("entity_id = ?", entityID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		record = models.ScoreRecord{
			ID:         uuid.NewString(),
			EntityID:   entityID,
			ComputedAt: time.Now(),
		}
		if err := s.DB.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateScores recomputes the entity's record from the supplied axes.
// Either axis may be nil (partial update); an omitted axis keeps delta 0
// for this run. The global score and delta are always recomputed as the
// mean of both axes. Inputs are not clamped here — range validation is the
// caller's job.
//
// The row is locked for the duration of the transaction so concurrent
// updates to the same entity serialize; different entities never contend.
func (s *ScoreService) UpdateScores(entityID string, requester, provider *float64) (*models.ScoreRecord, error) {
	var updated *models.ScoreRecord
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("entity_id = ?", entityID)
		// sqlite has a single writer and no FOR UPDATE syntax.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var record models.ScoreRecord
		if err := query.First(&record).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrEntityNotFound
			}
			return err
		}

		oldGlobal := record.ScoreGlobal

		record.DeltaRequester = 0
		record.DeltaProvider = 0
		if requester != nil {
			record.DeltaRequester = *requester - record.ScoreAsRequester
			record.ScoreAsRequester = *requester
		}
		if provider != nil {
			record.DeltaProvider = *provider - record.ScoreAsProvider
			record.ScoreAsProvider = *provider
		}

		record.ScoreGlobal = (record.ScoreAsRequester + record.ScoreAsProvider) / 2
		record.DeltaGlobal = record.ScoreGlobal - oldGlobal
		record.ComputedAt = time.Now()

		if err := tx.Save(&record).Error; err != nil {
			return err
		}

		// Audit trail: one global-axis entry per aggregation run.
		entry := models.ScoreHistoryEntry{
			ID:       uuid.NewString(),
			EntityID: entityID,
			Axis:     models.AxisGlobal,
			Score:    record.ScoreGlobal,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		updated = &models.ScoreRecord{}
		*updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Score changes may unlock badges ("Leyenda" reads puntaje_global).
	// Fire-and-forget: a badge hiccup never fails the score update.
	if s.Badges != nil {
		if _, err := s.Badges.EvaluateEntity(entityID); err != nil {
			log.Printf("[Scores] badge re-evaluation failed for %s: %v", entityID, err)
		}
	}

	return updated, nil
}

// Percentile returns the share of scored entities strictly below this
// entity's global score, as a value in [0,100]. Ties are not counted
// (strict <). The result is cached back onto the record; staleness between
// requests is accepted — recomputing every entity on every write would be
// absurd for a population statistic.
func (s *ScoreService) Percentile(entityID string) (float64, error) {
	var record models.ScoreRecord
	if err := s.DB.Where("entity_id = ?", entityID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, ErrEntityNotFound
		}
		return 0, err
	}

	var total int64
	if err := s.DB.Model(&models.ScoreRecord{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}

	var below int64
	if err := s.DB.Model(&models.ScoreRecord{}).
		Where("score_global < ?", record.ScoreGlobal).
		Count(&below).Error; err != nil {
		return 0, err
	}

	percentile := 100 * float64(below) / float64(total)
	if err := s.DB.Model(&record).UpdateColumn("percentile", percentile).Error; err != nil {
		return percentile, err
	}
	return percentile, nil
}

// ScoreSummary is the API projection of the live record.
type ScoreSummary struct {
	Contratante float64 `json:"contratante"`
	Contratado  float64 `json:"contratado"`
	Global      float64 `json:"global"`
	Cambios     struct {
		Contratante float64 `json:"contratante"`
		Contratado  float64 `json:"contratado"`
		Global      float64 `json:"global"`
	} `json:"cambios"`
	Percentil float64 `json:"percentil"`
}

// Summary returns the score view with a freshly recomputed percentile.
func (s *ScoreService) Summary(entityID string) (*ScoreSummary, error) {
	var record models.ScoreRecord
	if err := s.DB.Where("entity_id = ?", entityID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	percentile, err := s.Percentile(entityID)
	if err != nil {
		return nil, err
	}

	summary := &ScoreSummary{
		Contratante: record.ScoreAsRequester,
		Contratado:  record.ScoreAsProvider,
		Global:      record.ScoreGlobal,
		Percentil:   percentile,
	}
	summary.Cambios.Contratante = record.DeltaRequester
	summary.Cambios.Contratado = record.DeltaProvider
	summary.Cambios.Global = record.DeltaGlobal
	return summary, nil
}

// History returns the most recent global-axis entries, newest first.
func (s *ScoreService) History(entityID string, limit int) ([]models.ScoreHistoryEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var entries []models.ScoreHistoryEntry
	err := s.DB.Where("entity_id = ?", entityID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
