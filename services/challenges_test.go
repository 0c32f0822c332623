package services

import (
	"testing"
	"time"

	"trayectoria-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveChallenge(t *testing.T, svc *ChallengeService) *models.Challenge {
	t.Helper()
	challenge, err := svc.CreateChallenge(
		"Gran Torneo 2026", "Concurso de la comunidad",
		time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour), nil)
	require.NoError(t, err)
	challenge, err = svc.UpdateStatus(challenge.ID, "publish")
	require.NoError(t, err)
	return challenge
}

func TestCreateChallengeSlugAndDraftState(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)

	challenge, err := svc.CreateChallenge(
		"Gran Torneo 2026", "", time.Now(), time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, "gran-torneo-2026", challenge.Slug)
	assert.Equal(t, "draft", challenge.Status)
	assert.Nil(t, challenge.PublishedAt)
}

func TestPublishStampsPublishedAt(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)

	challenge := newActiveChallenge(t, svc)
	assert.Equal(t, "active", challenge.Status)
	assert.NotNil(t, challenge.PublishedAt)
}

func TestUpdateStatusUnknownChallenge(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)

	_, err := svc.UpdateStatus("missing", "publish")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestSubmitRequiresActiveChallenge(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)

	draft, err := svc.CreateChallenge("Torneo", "", time.Now(), time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	_, err = svc.Submit(draft.ID, "entity-1", "Mi entrada")
	assert.ErrorIs(t, err, ErrChallengeNotFound)

	_, err = svc.Submit("missing", "entity-1", "Mi entrada")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestSubmitDuplicateReturnsExisting(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)
	challenge := newActiveChallenge(t, svc)

	first, err := svc.Submit(challenge.ID, "entity-1", "Mi entrada")
	require.NoError(t, err)

	second, err := svc.Submit(challenge.ID, "entity-1", "Otra vez")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ?", challenge.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSetParticipationStatus(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)
	challenge := newActiveChallenge(t, svc)

	participation, err := svc.Submit(challenge.ID, "entity-1", "Mi entrada")
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationPending, participation.Status)

	updated, err := svc.SetParticipationStatus(participation.ID, models.ParticipationApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipationApproved, updated.Status)

	// A bad status string is a validation failure, not a lookup miss.
	_, err = svc.SetParticipationStatus(participation.ID, "weird")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.SetParticipationStatus("missing", models.ParticipationApproved)
	assert.ErrorIs(t, err, ErrParticipationNotFound)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)
	challenge := newActiveChallenge(t, svc)

	_, err := svc.UpdateStatus(challenge.ID, "weird")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	var stored models.Challenge
	require.NoError(t, db.First(&stored, "id = ?", challenge.ID).Error)
	assert.Equal(t, "active", stored.Status, "bad input leaves the row untouched")
}

func approvedParticipation(t *testing.T, svc *ChallengeService, challengeID, entityID string) *models.ChallengeParticipation {
	t.Helper()
	participation, err := svc.Submit(challengeID, entityID, "entrada")
	require.NoError(t, err)
	participation, err = svc.SetParticipationStatus(participation.ID, models.ParticipationApproved)
	require.NoError(t, err)
	return participation
}

func TestToggleVote(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)
	challenge := newActiveChallenge(t, svc)
	participation := approvedParticipation(t, svc, challenge.ID, "entity-1")

	voted, err := svc.ToggleVote(participation.ID, "voter-1")
	require.NoError(t, err)
	assert.True(t, voted)

	count, err := svc.VoteCount(participation.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// Second cast from the same voter toggles the vote off.
	voted, err = svc.ToggleVote(participation.ID, "voter-1")
	require.NoError(t, err)
	assert.False(t, voted)

	count, err = svc.VoteCount(participation.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestToggleVoteRequiresApprovedParticipation(t *testing.T) {
	db := openTestDB(t)
	svc := NewChallengeService(db)
	challenge := newActiveChallenge(t, svc)

	pending, err := svc.Submit(challenge.ID, "entity-1", "entrada")
	require.NoError(t, err)

	_, err = svc.ToggleVote(pending.ID, "voter-1")
	assert.ErrorIs(t, err, ErrParticipationNotFound)

	_, err = svc.ToggleVote("missing", "voter-1")
	assert.ErrorIs(t, err, ErrParticipationNotFound)
}
