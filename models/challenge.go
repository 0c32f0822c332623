package models

import (
	"time"
)

// Challenge is a time-boxed community contest. Ranking is only meaningful
// while the challenge is live: the leaderboard returns not-found outside
// [StartTime, EndTime] or when the status isn't active.
type Challenge struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	Slug            string     `json:"slug" gorm:"uniqueIndex"`
	Title           string     `json:"title" gorm:"not null"`
	Description     string     `json:"description"`
	Status          string     `json:"status" gorm:"default:'draft'"` // draft, active, closed, cancelled
	StartTime       time.Time  `json:"start_time" gorm:"not null"`
	EndTime         time.Time  `json:"end_time"`
	PublishSchedule *time.Time `json:"publish_schedule,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty" gorm:"index"`

	Timestamps
}

// Participation status values. Only approved participations are ranked.
const (
	ParticipationPending      = "pending"
	ParticipationApproved     = "approved"
	ParticipationRejected     = "rejected"
	ParticipationDisqualified = "disqualified"
)

// ChallengeParticipation is one contest entry by an entity.
type ChallengeParticipation struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string    `gorm:"not null;uniqueIndex:idx_challenge_entity" json:"challenge_id"`
	EntityID    string    `gorm:"not null;uniqueIndex:idx_challenge_entity" json:"entity_id"`
	Title       string    `json:"title"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`
	Status      string    `json:"status" gorm:"type:varchar(16);default:'pending'"`

	Timestamps
}

// Vote: one voter, one participation. A repeated cast toggles the prior
// vote off instead of double-counting.
type Vote struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipationID string    `gorm:"not null;uniqueIndex:idx_participation_voter" json:"participation_id"`
	VoterID         string    `gorm:"not null;uniqueIndex:idx_participation_voter" json:"voter_id"`
	CastAt          time.Time `json:"cast_at" gorm:"autoCreateTime"`
}

// Rank movement classifications relative to the previous computation.
const (
	RankNew  = "new"
	RankUp   = "up"
	RankDown = "down"
	RankSame = "same"
)

// LeaderboardRow is derived on every read and never persisted.
type LeaderboardRow struct {
	ParticipationID string `json:"participacion_id"`
	EntityID        string `json:"entity_id"`
	Votes           int64  `json:"votos"`
	Rank            int    `json:"posicion"`
	RankDelta       string `json:"cambio_posicion"`
}
