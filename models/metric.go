package models

// MetricSnapshot is a read-only view of an entity's raw counters at
// computation time. It is assembled by the snapshot reader and never
// persisted by the engine.
type MetricSnapshot map[string]float64

// Value returns the metric value, or 0 when the key is absent. Badge
// criteria referencing a metric the store doesn't carry must not crash
// the evaluation of other badges.
func (s MetricSnapshot) Value(key string) float64 {
	return s[key]
}

// Has reports whether the metric was present in the snapshot, so the
// unlock engine can log a configuration warning for absent keys.
func (s MetricSnapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Metric keys exposed by the snapshot reader. Badge criteria reference
// these as plain strings, so adding a badge never requires code changes.
const (
	MetricContractsCompleted   = "contratos_completados"
	MetricContractsAsRequester = "contratos_como_contratante"
	MetricContractsAsProvider  = "contratos_como_contratado"
	MetricPerfectRatings       = "valoraciones_perfectas"
	MetricRecurringClients     = "clientes_recurrentes"
	MetricResponseTimeHours    = "tiempo_respuesta_horas"
	MetricRegistrationOrder    = "orden_registro"
	MetricGlobalScore          = "puntaje_global"
)
