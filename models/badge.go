package models

import (
	"time"
)

// BadgeDefinition: declarative unlock catalog (seeded once, extendable via admin API)
type BadgeDefinition struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"` // e.g., "primer-contrato"
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `gorm:"type:varchar(16)" json:"color"`

	// Criterion: (metric, operator, threshold). The operator must be one of
	// the closed set understood by the evaluator; definitions are validated
	// when the catalog is loaded, not at evaluation time.
	CriteriaMetric   string  `gorm:"not null" json:"criterio_tipo"`
	CriteriaOperator string  `gorm:"type:varchar(4);not null" json:"criterio_operador"` // >=, <=, ==, >, <, !=
	CriteriaValue    float64 `json:"criterio_valor"`

	// Exclusive badges carry a global award cap; once MaxAwards awards
	// exist the badge can no longer be unlocked by anyone.
	Exclusive bool `gorm:"default:false" json:"exclusive"`
	MaxAwards *int `json:"max_awards,omitempty"`

	// Secret badges render as a placeholder until unlocked.
	Secret   bool `gorm:"default:false" json:"secret"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	// AwardCount backs the MaxAwards check; bumped on every award.
	AwardCount int64 `json:"award_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BadgeAward: unlocked instance. The (entity_id, badge_code) unique index is
// the load-bearing invariant: a concurrent duplicate insert is a no-op, so a
// badge is never awarded twice no matter how often evaluation re-runs.
type BadgeAward struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	EntityID  string     `gorm:"not null;uniqueIndex:idx_entity_badge" json:"entity_id"`
	BadgeCode string     `gorm:"not null;uniqueIndex:idx_entity_badge" json:"badge_code"`
	AwardedAt time.Time  `json:"awarded_at" gorm:"autoCreateTime"`
	Revoked   bool       `json:"revoked" gorm:"default:false"` // soft state, never deleted
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// BadgeCatalog seeds the definition table on first boot. Everything here is
// data: a new badge needs a row, not a release.
var BadgeCatalog = []BadgeDefinition{
	{
		Code:             "primer-contrato",
		Name:             "Primer Contrato",
		Description:      "Completaste tu primer contrato",
		Icon:             "handshake",
		Color:            "#4CAF50",
		CriteriaMetric:   MetricContractsCompleted,
		CriteriaOperator: ">=",
		CriteriaValue:    1,
	},
	{
		Code:             "diez-contratos",
		Name:             "Profesional Activo",
		Description:      "Completaste 10 contratos",
		Icon:             "briefcase",
		Color:            "#2196F3",
		CriteriaMetric:   MetricContractsCompleted,
		CriteriaOperator: ">=",
		CriteriaValue:    10,
	},
	{
		Code:             "cinco-estrellas",
		Name:             "Cinco Estrellas",
		Description:      "Recibiste 5 valoraciones perfectas",
		Icon:             "star",
		Color:            "#FFC107",
		CriteriaMetric:   MetricPerfectRatings,
		CriteriaOperator: ">=",
		CriteriaValue:    5,
	},
	{
		Code:             "clientes-fieles",
		Name:             "Clientes Fieles",
		Description:      "3 clientes volvieron a contratarte",
		Icon:             "repeat",
		Color:            "#9C27B0",
		CriteriaMetric:   MetricRecurringClients,
		CriteriaOperator: ">=",
		CriteriaValue:    3,
	},
	{
		Code:             "respuesta-rapida",
		Name:             "Respuesta Rápida",
		Description:      "Tiempo de respuesta promedio menor a 2 horas",
		Icon:             "bolt",
		Color:            "#FF5722",
		CriteriaMetric:   MetricResponseTimeHours,
		CriteriaOperator: "<=",
		CriteriaValue:    2,
	},
	{
		Code:             "pionero",
		Name:             "Pionero",
		Description:      "Entre los primeros 100 registrados",
		Icon:             "flag",
		Color:            "#795548",
		CriteriaMetric:   MetricRegistrationOrder,
		CriteriaOperator: "<=",
		CriteriaValue:    100,
		Exclusive:        true,
		MaxAwards:        intPtr(100),
	},
	{
		Code:             "leyenda",
		Name:             "Leyenda",
		Description:      "Puntaje global de 95 o más",
		Icon:             "trophy",
		Color:            "#E91E63",
		CriteriaMetric:   MetricGlobalScore,
		CriteriaOperator: ">=",
		CriteriaValue:    95,
		Secret:           true,
	},
}

func intPtr(n int) *int { return &n }
