package services

import (
	"trayectoria-service/models"

	"gorm.io/gorm"
)

// MetricSnapshotReader exposes an entity's raw counters as a flat
// metric_key -> number view. It is the engine's only window into the
// persistent store; everything downstream of it is pure computation.
type MetricSnapshotReader interface {
	Snapshot(entityID string) (models.MetricSnapshot, error)
}

// DBMetricReader assembles snapshots from the entity row and its live
// score record.
type DBMetricReader struct {
	DB *gorm.DB
}

func NewDBMetricReader(db *gorm.DB) *DBMetricReader {
	return &DBMetricReader{DB: db}
}

func (r *DBMetricReader) Snapshot(entityID string) (models.MetricSnapshot, error) {
	var entity models.Entity
	if err := r.DB.Where("id = ?", entityID).First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	snap := models.MetricSnapshot{
		models.MetricContractsCompleted:   float64(entity.ContractsCompleted),
		models.MetricContractsAsRequester: float64(entity.ContractsAsRequester),
		models.MetricContractsAsProvider:  float64(entity.ContractsAsProvider),
		models.MetricPerfectRatings:       float64(entity.PerfectRatings),
		models.MetricRecurringClients:     float64(entity.RecurringClients),
		models.MetricResponseTimeHours:    entity.ResponseTimeHours,
		models.MetricRegistrationOrder:    float64(entity.RegistrationOrder),
	}

	// The global score is itself a metric: badges like "Leyenda" unlock on it.
	var record models.ScoreRecord
	if err := r.DB.Where("entity_id = ?", entityID).First(&record).Error; err == nil {
		snap[models.MetricGlobalScore] = record.ScoreGlobal
	}

	return snap, nil
}
