package services

import (
	"fmt"
	"testing"
	"time"

	"trayectoria-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedChallenge(t *testing.T, db *gorm.DB, status string, start, end time.Time) *models.Challenge {
	t.Helper()
	challenge := &models.Challenge{
		ID:        "challenge-1",
		Slug:      "torneo-de-prueba",
		Title:     "Torneo de Prueba",
		Status:    status,
		StartTime: start,
		EndTime:   end,
	}
	require.NoError(t, db.Create(challenge).Error)
	return challenge
}

func addParticipation(t *testing.T, db *gorm.DB, challengeID, id, entityID string, submittedAt time.Time) {
	t.Helper()
	participation := models.ChallengeParticipation{
		ID:          id,
		ChallengeID: challengeID,
		EntityID:    entityID,
		Title:       "entrada " + id,
		SubmittedAt: submittedAt,
		Status:      models.ParticipationApproved,
	}
	require.NoError(t, db.Create(&participation).Error)
}

func addVotes(t *testing.T, db *gorm.DB, participationID string, n int, castAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		vote := models.Vote{
			ID:              fmt.Sprintf("%s-vote-%d-%d", participationID, i, castAt.UnixNano()),
			ParticipationID: participationID,
			VoterID:         fmt.Sprintf("%s-voter-%d-%d", participationID, i, castAt.UnixNano()),
			CastAt:          castAt,
		}
		require.NoError(t, db.Create(&vote).Error)
	}
}

// newLiveBoard seeds an active challenge with three approved entries:
// p1 and p2 tied at 5 votes (p2 submitted first), p3 at 3.
func newLiveBoard(t *testing.T) (*gorm.DB, *LeaderboardService, *models.Challenge) {
	t.Helper()
	db := openTestDB(t)
	challenge := seedChallenge(t, db, "active", time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))

	base := time.Now().Add(-30 * time.Minute)
	addParticipation(t, db, challenge.ID, "p1", "entity-1", base.Add(2*time.Minute))
	addParticipation(t, db, challenge.ID, "p2", "entity-2", base)
	addParticipation(t, db, challenge.ID, "p3", "entity-3", base.Add(time.Minute))
	addVotes(t, db, "p1", 5, time.Now())
	addVotes(t, db, "p2", 5, time.Now())
	addVotes(t, db, "p3", 3, time.Now())

	return db, NewLeaderboardService(db), challenge
}

func TestComputeDenseRankWithTies(t *testing.T) {
	_, svc, challenge := newLiveBoard(t)

	page, err := svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Leaderboard, 3)
	assert.Equal(t, 3, page.TotalParticipantes)

	// Tie at 5 votes shares rank 1, earlier submission listed first; the
	// next distinct count lands at rank 3, not 2.
	assert.Equal(t, "p2", page.Leaderboard[0].ParticipationID)
	assert.Equal(t, 1, page.Leaderboard[0].Rank)
	assert.Equal(t, "p1", page.Leaderboard[1].ParticipationID)
	assert.Equal(t, 1, page.Leaderboard[1].Rank)
	assert.Equal(t, "p3", page.Leaderboard[2].ParticipationID)
	assert.Equal(t, 3, page.Leaderboard[2].Rank)
}

func TestComputeRankMovement(t *testing.T) {
	db, svc, challenge := newLiveBoard(t)

	page, err := svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	for _, row := range page.Leaderboard {
		assert.Equal(t, models.RankNew, row.RankDelta, "first computation: everyone is new")
	}

	// p3 surges past the tie.
	addVotes(t, db, "p3", 4, time.Now())

	page, err = svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	byID := map[string]models.LeaderboardRow{}
	for _, row := range page.Leaderboard {
		byID[row.ParticipationID] = row
	}
	assert.Equal(t, 1, byID["p3"].Rank)
	assert.Equal(t, models.RankUp, byID["p3"].RankDelta)
	assert.Equal(t, models.RankDown, byID["p1"].RankDelta)
	assert.Equal(t, models.RankDown, byID["p2"].RankDelta)

	// A third run with nothing changed reports everyone as stable.
	page, err = svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	for _, row := range page.Leaderboard {
		assert.Equal(t, models.RankSame, row.RankDelta)
	}
}

func TestComputeWindowFiltersOldVotes(t *testing.T) {
	db := openTestDB(t)
	challenge := seedChallenge(t, db, "active", time.Now().Add(-30*24*time.Hour), time.Now().Add(24*time.Hour))
	addParticipation(t, db, challenge.ID, "p1", "entity-1", time.Now().Add(-20*24*time.Hour))
	addVotes(t, db, "p1", 2, time.Now().Add(-10*24*time.Hour))
	addVotes(t, db, "p1", 1, time.Now())

	svc := NewLeaderboardService(db)

	page, err := svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Leaderboard[0].Votes)

	page, err = svc.Compute(challenge.ID, PeriodWeek, 20, 0, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Leaderboard[0].Votes)
}

func TestComputeRejectsNonLiveChallenges(t *testing.T) {
	db := openTestDB(t)
	svc := NewLeaderboardService(db)

	_, err := svc.Compute("missing", PeriodAll, 20, 0, "")
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	draft := seedChallenge(t, db, "draft", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	_, err = svc.Compute(draft.ID, PeriodAll, 20, 0, "")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestComputeRejectsOutOfWindowChallenges(t *testing.T) {
	db := openTestDB(t)
	ended := &models.Challenge{
		ID: "ended", Slug: "ended", Title: "Ended", Status: "active",
		StartTime: time.Now().Add(-48 * time.Hour), EndTime: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, db.Create(ended).Error)
	upcoming := &models.Challenge{
		ID: "upcoming", Slug: "upcoming", Title: "Upcoming", Status: "active",
		StartTime: time.Now().Add(24 * time.Hour), EndTime: time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, db.Create(upcoming).Error)

	svc := NewLeaderboardService(db)

	_, err := svc.Compute("ended", PeriodAll, 20, 0, "")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
	_, err = svc.Compute("upcoming", PeriodAll, 20, 0, "")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestComputeEmptyChallenge(t *testing.T) {
	db := openTestDB(t)
	challenge := seedChallenge(t, db, "active", time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	svc := NewLeaderboardService(db)

	page, err := svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	assert.Empty(t, page.Leaderboard)
	assert.Equal(t, 0, page.TotalParticipantes)
	assert.False(t, page.Pagination.HasMore)
}

func TestComputeZeroVoteEntriesRankLast(t *testing.T) {
	db, svc, challenge := newLiveBoard(t)
	addParticipation(t, db, challenge.ID, "p4", "entity-4", time.Now())

	page, err := svc.Compute(challenge.ID, PeriodAll, 20, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Leaderboard, 4)
	last := page.Leaderboard[3]
	assert.Equal(t, "p4", last.ParticipationID)
	assert.EqualValues(t, 0, last.Votes)
	assert.Equal(t, 4, last.Rank)
}

func TestComputePagination(t *testing.T) {
	_, svc, challenge := newLiveBoard(t)

	page, err := svc.Compute(challenge.ID, PeriodAll, 2, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Leaderboard, 2)
	assert.True(t, page.Pagination.HasMore)
	assert.Equal(t, 3, page.TotalParticipantes)

	page, err = svc.Compute(challenge.ID, PeriodAll, 2, 2, "")
	require.NoError(t, err)
	assert.Len(t, page.Leaderboard, 1)
	assert.False(t, page.Pagination.HasMore)

	page, err = svc.Compute(challenge.ID, PeriodAll, 2, 10, "")
	require.NoError(t, err)
	assert.Empty(t, page.Leaderboard)
	assert.False(t, page.Pagination.HasMore)
}

func TestComputeViewerPositionOutsidePage(t *testing.T) {
	_, svc, challenge := newLiveBoard(t)

	page, err := svc.Compute(challenge.ID, PeriodAll, 1, 0, "entity-3")
	require.NoError(t, err)
	require.Len(t, page.Leaderboard, 1)
	require.NotNil(t, page.MiPosicion)
	assert.Equal(t, "p3", page.MiPosicion.ParticipationID)
	assert.Equal(t, 3, page.MiPosicion.Rank)

	page, err = svc.Compute(challenge.ID, PeriodAll, 1, 0, "entity-unknown")
	require.NoError(t, err)
	assert.Nil(t, page.MiPosicion)
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, PeriodToday, ParsePeriod("today"))
	assert.Equal(t, PeriodToday, ParsePeriod("hoy"))
	assert.Equal(t, PeriodWeek, ParsePeriod("week"))
	assert.Equal(t, PeriodWeek, ParsePeriod("semana"))
	assert.Equal(t, PeriodWeek, ParsePeriod("7d"))
	assert.Equal(t, PeriodAll, ParsePeriod(""))
	assert.Equal(t, PeriodAll, ParsePeriod("whatever"))
}
