package services

import (
	"fmt"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StageService keeps the four lifecycle-stage sub-scores. Stage rows are
// created once at onboarding; recomputation mutates them in place and is
// idempotent over unchanged inputs.
type StageService struct {
	DB *gorm.DB
}

func NewStageService(db *gorm.DB) *StageService {
	return &StageService{DB: db}
}

// EnsureStageRecords creates the four per-entity stage rows if missing.
func (s *StageService) EnsureStageRecords(entityID string) error {
	for _, def := range models.StageCatalog {
		var count int64
		if err := s.DB.Model(&models.StageScore{}).
			Where("entity_id = ? AND stage_id = ?", entityID, def.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := models.StageScore{
			ID:       uuid.NewString(),
			EntityID: entityID,
			StageID:  def.ID,
			Score:    0,
			Visible:  true,
			Metrics:  []models.StageMetric{},
		}
		if err := s.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// RecordRating stores a stage-scoped rating event and refreshes the stage.
// Ratings live on the 0-5 scale. Insert and recompute share one transaction:
// a rating rejected for an unknown entity must not leave a row behind.
func (s *StageService) RecordRating(entityID string, stageID int, score float64, raterID string) error {
	if stageID < models.StageContact || stageID > models.StagePostService {
		return ErrUnknownStage
	}
	if score < 0 || score > 5 {
		return ErrScoreOutOfRange
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		rating := models.StageRating{
			ID:       uuid.NewString(),
			EntityID: entityID,
			StageID:  stageID,
			Score:    score,
			RaterID:  raterID,
		}
		if err := tx.Create(&rating).Error; err != nil {
			return err
		}
		return recomputeStage(tx, entityID, stageID)
	})
}

// RecomputeStage refreshes one stage score from its rating events. The
// score is the plain average clamped to [0,5]; the presentation metrics
// list is rebuilt in place. Running it twice over unchanged inputs yields
// the same row.
func (s *StageService) RecomputeStage(entityID string, stageID int) error {
	return recomputeStage(s.DB, entityID, stageID)
}

func recomputeStage(db *gorm.DB, entityID string, stageID int) error {
	var row models.StageScore
	if err := db.Where("entity_id = ? AND stage_id = ?", entityID, stageID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrEntityNotFound
		}
		return err
	}

	type aggregate struct {
		Avg   float64
		Count int64
	}
	var agg aggregate
	if err := db.Model(&models.StageRating{}).
		Select("COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count").
		Where("entity_id = ? AND stage_id = ?", entityID, stageID).
		Scan(&agg).Error; err != nil {
		return err
	}

	score := agg.Avg
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}

	row.Score = score
	row.Metrics = []models.StageMetric{
		{Label: "Valoraciones", Icon: "comment", Value: fmt.Sprintf("%d", agg.Count)},
		{Label: "Promedio", Icon: "star", Value: fmt.Sprintf("%.1f", score)},
	}
	return db.Save(&row).Error
}

// RecomputeAll refreshes every stage for the entity.
func (s *StageService) RecomputeAll(entityID string) error {
	for _, def := range models.StageCatalog {
		if err := s.RecomputeStage(entityID, def.ID); err != nil {
			return err
		}
	}
	return nil
}

// StageView is the API projection of one stage row.
type StageView struct {
	ID       string               `json:"id"`
	Numero   int                  `json:"numero"`
	Nombre   string               `json:"nombre"`
	Color    string               `json:"color"`
	Score    float64              `json:"score"`
	Visible  bool                 `json:"visible"`
	Metricas []models.StageMetric `json:"metricas"`
}

// ListForEntity returns the four stages in catalog order.
func (s *StageService) ListForEntity(entityID string) ([]StageView, error) {
	var rows []models.StageScore
	if err := s.DB.Where("entity_id = ?", entityID).Order("stage_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEntityNotFound
	}

	byStage := make(map[int]models.StageScore, len(rows))
	for _, row := range rows {
		byStage[row.StageID] = row
	}

	views := make([]StageView, 0, len(models.StageCatalog))
	for _, def := range models.StageCatalog {
		row, ok := byStage[def.ID]
		if !ok {
			continue
		}
		metrics := row.Metrics
		if metrics == nil {
			metrics = []models.StageMetric{}
		}
		views = append(views, StageView{
			ID:       row.ID,
			Numero:   def.Numero,
			Nombre:   def.Nombre,
			Color:    def.Color,
			Score:    row.Score,
			Visible:  row.Visible,
			Metricas: metrics,
		})
	}
	return views, nil
}

// SetVisibility hides or shows one stage on the public profile.
func (s *StageService) SetVisibility(entityID string, stageID int, visible bool) error {
	result := s.DB.Model(&models.StageScore{}).
		Where("entity_id = ? AND stage_id = ?", entityID, stageID).
		UpdateColumn("visible", visible)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntityNotFound
	}
	return nil
}
