package models

// StageDefinition describes one of the four fixed lifecycle stages of an
// engagement. The set is closed; stages are not user data.
type StageDefinition struct {
	ID     int    `json:"id"`
	Numero int    `json:"numero"`
	Nombre string `json:"nombre"`
	Color  string `json:"color"`
}

// Stage ids (1..4).
const (
	StageContact     = 1
	StageExecution   = 2
	StageDelivery    = 3
	StagePostService = 4
)

// StageCatalog is the ordered, fixed stage list used for presentation.
var StageCatalog = []StageDefinition{
	{ID: StageContact, Numero: 1, Nombre: "Contacto", Color: "#03A9F4"},
	{ID: StageExecution, Numero: 2, Nombre: "Ejecución", Color: "#8BC34A"},
	{ID: StageDelivery, Numero: 3, Nombre: "Entrega", Color: "#FF9800"},
	{ID: StagePostService, Numero: 4, Nombre: "Post-servicio", Color: "#673AB7"},
}

// StageMetric is a named presentation value shown under a stage score.
type StageMetric struct {
	Label string `json:"label"`
	Icon  string `json:"icono"`
	Value string `json:"valor"`
}

// StageScore holds one stage sub-score for an entity. Rows are created once
// at onboarding and mutated in place; score stays in [0,5].
type StageScore struct {
	ID       string        `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID string        `gorm:"not null;uniqueIndex:idx_entity_stage" json:"entity_id"`
	StageID  int           `gorm:"not null;uniqueIndex:idx_entity_stage" json:"stage_id"`
	Score    float64       `json:"score" gorm:"default:0"`
	Visible  bool          `json:"visible" gorm:"default:true"`
	Metrics  []StageMetric `json:"metrics" gorm:"serializer:json"`

	Timestamps
}

// StageRating is a stage-scoped rating event (0-5), the raw input the stage
// calculator averages from. Written by the rating CRUD layer.
type StageRating struct {
	ID       string  `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID string  `gorm:"index;not null" json:"entity_id"`
	StageID  int     `gorm:"index;not null" json:"stage_id"`
	Score    float64 `json:"score"`
	RaterID  string  `json:"rater_id"`

	Timestamps
}
