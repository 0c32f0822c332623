package services

import (
	"testing"

	"trayectoria-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func float(v float64) *float64 { return &v }

func newScoreFixture(t *testing.T) (*gorm.DB, *ScoreService) {
	t.Helper()
	db := openTestDB(t)
	svc := NewScoreService(db, nil)
	createTestEntity(t, db, "entity-1", 1)
	_, err := svc.EnsureScoreRecord("entity-1")
	require.NoError(t, err)
	return db, svc
}

func TestUpdateScoresComputesGlobalAndDeltas(t *testing.T) {
	_, svc := newScoreFixture(t)

	record, err := svc.UpdateScores("entity-1", float(80), float(90))
	require.NoError(t, err)
	assert.InDelta(t, 80, record.ScoreAsRequester, 1e-9)
	assert.InDelta(t, 90, record.ScoreAsProvider, 1e-9)
	assert.InDelta(t, 85, record.ScoreGlobal, 1e-9)

	// Partial update: only the requester axis moves.
	record, err = svc.UpdateScores("entity-1", float(85), nil)
	require.NoError(t, err)
	assert.InDelta(t, 5, record.DeltaRequester, 1e-9)
	assert.InDelta(t, 0, record.DeltaProvider, 1e-9)
	assert.InDelta(t, 90, record.ScoreAsProvider, 1e-9, "omitted axis untouched")
	assert.InDelta(t, 87.5, record.ScoreGlobal, 1e-9)
	assert.InDelta(t, 2.5, record.DeltaGlobal, 1e-9)
}

func TestUpdateScoresGlobalIsAlwaysTheMean(t *testing.T) {
	_, svc := newScoreFixture(t)

	steps := []struct {
		requester, provider *float64
	}{
		{float(100), nil},
		{nil, float(40)},
		{float(0), float(0)},
		{float(62.5), float(81.5)},
	}
	for _, step := range steps {
		record, err := svc.UpdateScores("entity-1", step.requester, step.provider)
		require.NoError(t, err)
		assert.InDelta(t, (record.ScoreAsRequester+record.ScoreAsProvider)/2, record.ScoreGlobal, 1e-9)
	}
}

func TestUpdateScoresAppendsHistory(t *testing.T) {
	db, svc := newScoreFixture(t)

	_, err := svc.UpdateScores("entity-1", float(50), float(50))
	require.NoError(t, err)
	_, err = svc.UpdateScores("entity-1", float(60), nil)
	require.NoError(t, err)

	var entries []models.ScoreHistoryEntry
	require.NoError(t, db.Where("entity_id = ?", "entity-1").Find(&entries).Error)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, models.AxisGlobal, entry.Axis)
	}
}

func TestUpdateScoresUnknownEntity(t *testing.T) {
	db := openTestDB(t)
	svc := NewScoreService(db, nil)

	_, err := svc.UpdateScores("missing", float(50), nil)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func seedScoredEntity(t *testing.T, svc *ScoreService, db *gorm.DB, id string, order int64, global float64) {
	t.Helper()
	createTestEntity(t, db, id, order)
	_, err := svc.EnsureScoreRecord(id)
	require.NoError(t, err)
	_, err = svc.UpdateScores(id, float(global), float(global))
	require.NoError(t, err)
}

func TestPercentileStrictlyBelow(t *testing.T) {
	db := openTestDB(t)
	svc := NewScoreService(db, nil)

	seedScoredEntity(t, svc, db, "low", 1, 10)
	seedScoredEntity(t, svc, db, "mid", 2, 50)
	seedScoredEntity(t, svc, db, "high", 3, 90)

	p, err := svc.Percentile("high")
	require.NoError(t, err)
	assert.InDelta(t, 100*2.0/3.0, p, 1e-9)

	p, err = svc.Percentile("low")
	require.NoError(t, err)
	assert.InDelta(t, 0, p, 1e-9)

	// A tie is not "below": the second 50 does not lift mid's percentile.
	seedScoredEntity(t, svc, db, "mid2", 4, 50)
	p, err = svc.Percentile("mid")
	require.NoError(t, err)
	assert.InDelta(t, 25, p, 1e-9)
}

func TestPercentileSingleEntity(t *testing.T) {
	db, svc := newScoreFixture(t)

	_, err := svc.UpdateScores("entity-1", float(99), float(99))
	require.NoError(t, err)

	p, err := svc.Percentile("entity-1")
	require.NoError(t, err)
	assert.InDelta(t, 0, p, 1e-9)

	var record models.ScoreRecord
	require.NoError(t, db.Where("entity_id = ?", "entity-1").First(&record).Error)
	assert.InDelta(t, 0, record.Percentile, 1e-9, "percentile cached on the record")
}

func TestSummaryProjection(t *testing.T) {
	_, svc := newScoreFixture(t)

	_, err := svc.UpdateScores("entity-1", float(80), float(90))
	require.NoError(t, err)
	_, err = svc.UpdateScores("entity-1", float(85), nil)
	require.NoError(t, err)

	summary, err := svc.Summary("entity-1")
	require.NoError(t, err)
	assert.InDelta(t, 85, summary.Contratante, 1e-9)
	assert.InDelta(t, 90, summary.Contratado, 1e-9)
	assert.InDelta(t, 87.5, summary.Global, 1e-9)
	assert.InDelta(t, 5, summary.Cambios.Contratante, 1e-9)
	assert.InDelta(t, 0, summary.Cambios.Contratado, 1e-9)
	assert.InDelta(t, 2.5, summary.Cambios.Global, 1e-9)
}

func TestSummaryUnknownEntity(t *testing.T) {
	db := openTestDB(t)
	svc := NewScoreService(db, nil)

	_, err := svc.Summary("missing")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestHistoryLimitClamped(t *testing.T) {
	_, svc := newScoreFixture(t)

	for i := 0; i < 3; i++ {
		_, err := svc.UpdateScores("entity-1", float(float64(50+i)), nil)
		require.NoError(t, err)
	}

	entries, err := svc.History("entity-1", 0) // out of range, falls back to 20
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.History("entity-1", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
