package services

import (
	"time"

	"trayectoria-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChallengeService owns the contest lifecycle (draft → active → closed)
// and the participation state machine feeding the leaderboard.
type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// CreateChallenge registers a new contest in draft state. The slug is
// derived from the title; PublishSchedule defers activation to the
// scheduler.
func (s *ChallengeService) CreateChallenge(title, description string, startTime, endTime time.Time, publishSchedule *time.Time) (*models.Challenge, error) {
	challenge := &models.Challenge{
		ID:              uuid.NewString(),
		Slug:            slug.Make(title),
		Title:           title,
		Description:     description,
		Status:          "draft",
		StartTime:       startTime,
		EndTime:         endTime,
		PublishSchedule: publishSchedule,
	}
	if err := s.DB.Create(challenge).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

// UpdateStatus moves the challenge through its lifecycle. "publish" goes
// active immediately and stamps published_at.
func (s *ChallengeService) UpdateStatus(challengeID, status string) (*models.Challenge, error) {
	var updates map[string]interface{}
	switch status {
	case "publish":
		now := time.Now()
		updates = map[string]interface{}{"status": "active", "published_at": now}
	case "draft", "active", "closed", "cancelled":
		updates = map[string]interface{}{"status": status}
	default:
		return nil, ErrInvalidStatus
	}

	result := s.DB.Model(&models.Challenge{}).Where("id = ?", challengeID).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrChallengeNotFound
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

// Submit enters an entity into a challenge. One entry per entity per
// challenge; resubmitting returns the existing participation.
func (s *ChallengeService) Submit(challengeID, entityID, title string) (*models.ChallengeParticipation, error) {
	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	if challenge.Status != "active" {
		return nil, ErrChallengeNotFound
	}

	participation := models.ChallengeParticipation{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		EntityID:    entityID,
		Title:       title,
		Status:      models.ParticipationPending,
	}
	result := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&participation)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Duplicate submit resolves to the existing entry, not an error.
		var existing models.ChallengeParticipation
		if err := s.DB.Where("challenge_id = ? AND entity_id = ?", challengeID, entityID).
			First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &participation, nil
}

// SetParticipationStatus drives the moderation state machine. Approval is
// what makes an entry rankable; rejected/disqualified entries drop out of
// the leaderboard on the next read.
func (s *ChallengeService) SetParticipationStatus(participationID, status string) (*models.ChallengeParticipation, error) {
	switch status {
	case models.ParticipationPending, models.ParticipationApproved,
		models.ParticipationRejected, models.ParticipationDisqualified:
	default:
		return nil, ErrInvalidStatus
	}

	var participation models.ChallengeParticipation
	if err := s.DB.Where("id = ?", participationID).First(&participation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrParticipationNotFound
		}
		return nil, err
	}

	participation.Status = status
	if err := s.DB.Save(&participation).Error; err != nil {
		return nil, err
	}
	return &participation, nil
}

// ToggleVote casts or removes a vote. The (participation, voter) unique
// index means a concurrent duplicate cast is a no-op, and a repeated cast
// from the same voter removes the earlier vote instead of double-counting.
// Returns whether the voter holds a vote after the call.
func (s *ChallengeService) ToggleVote(participationID, voterID string) (bool, error) {
	var participation models.ChallengeParticipation
	if err := s.DB.Where("id = ?", participationID).First(&participation).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, ErrParticipationNotFound
		}
		return false, err
	}
	if participation.Status != models.ParticipationApproved {
		return false, ErrParticipationNotFound
	}

	var existing models.Vote
	err := s.DB.Where("participation_id = ? AND voter_id = ?", participationID, voterID).
		First(&existing).Error
	if err == nil {
		if err := s.DB.Delete(&existing).Error; err != nil {
			return true, err
		}
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	vote := models.Vote{
		ID:              uuid.NewString(),
		ParticipationID: participationID,
		VoterID:         voterID,
	}
	// DO NOTHING resolves the race where two requests from the same voter
	// both miss the existence check: the loser's insert silently collapses
	// into the winner's.
	if err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote).Error; err != nil {
		return false, err
	}
	return true, nil
}

// VoteCount reports a participation's all-time vote total.
func (s *ChallengeService) VoteCount(participationID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Vote{}).
		Where("participation_id = ?", participationID).
		Count(&count).Error
	return count, err
}
