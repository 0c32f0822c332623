package models

import (
	"time"

	"gorm.io/gorm"
)

// Entity is a scored subject: a user or a business profile from the
// accounts service. Only the fields the scoring engine needs are mirrored
// here; account CRUD lives in the accounts service.
type Entity struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // accounts service UUID
	Name           string `gorm:"not null" json:"name"`
	Kind           string `gorm:"type:varchar(16);default:'user'" json:"kind"` // user | business

	// RegistrationOrder is assigned once at onboarding and never changes.
	// Exclusivity badge criteria (e.g. "first 100 registered") read it
	// through the metric snapshot.
	RegistrationOrder int64 `gorm:"uniqueIndex;not null" json:"registration_order"`

	// Activity counters, incremented by the CRUD layer as contracts and
	// ratings are written. The snapshot reader exposes them as metrics.
	ContractsCompleted   int64   `json:"contracts_completed" gorm:"default:0"`
	ContractsAsRequester int64   `json:"contracts_as_requester" gorm:"default:0"`
	ContractsAsProvider  int64   `json:"contracts_as_provider" gorm:"default:0"`
	PerfectRatings       int64   `json:"perfect_ratings" gorm:"default:0"`
	RecurringClients     int64   `json:"recurring_clients" gorm:"default:0"`
	ResponseTimeHours    float64 `json:"response_time_hours" gorm:"default:0"`

	Timestamps
}

// ScoreRecord is the single live score row per entity, mutated in place by
// the aggregator. History is captured separately in ScoreHistoryEntry.
type ScoreRecord struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID string `gorm:"uniqueIndex;not null" json:"entity_id"`

	// All scores live in [0,100]; ScoreGlobal is always the mean of the
	// two directional axes.
	ScoreAsRequester float64 `json:"score_as_requester" gorm:"default:0"`
	ScoreAsProvider  float64 `json:"score_as_provider" gorm:"default:0"`
	ScoreGlobal      float64 `json:"score_global" gorm:"default:0"`

	// Deltas from the most recent aggregation run.
	DeltaRequester float64 `json:"delta_requester" gorm:"default:0"`
	DeltaProvider  float64 `json:"delta_provider" gorm:"default:0"`
	DeltaGlobal    float64 `json:"delta_global" gorm:"default:0"`

	// Percentile is a cached population-relative statistic; it is refreshed
	// when requested, not invalidated on other entities' writes.
	Percentile float64   `json:"percentile" gorm:"default:0"`
	ComputedAt time.Time `json:"computed_at"`

	Timestamps
}

// ScoreHistoryEntry is the append-only audit trail; one row per
// aggregation run, never updated or deleted.
type ScoreHistoryEntry struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID   string    `gorm:"index;not null" json:"entity_id"`
	Axis       string    `gorm:"type:varchar(16);not null" json:"axis"` // requester | provider | global
	Score      float64   `json:"score"`
	RecordedAt time.Time `json:"recorded_at" gorm:"autoCreateTime"`
}

// Score axes.
const (
	AxisRequester = "requester"
	AxisProvider  = "provider"
	AxisGlobal    = "global"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
