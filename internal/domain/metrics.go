package domain

// EngineMetrics is the JSON snapshot exposed by GET /v1/metrics/engine.
// Values are cumulative since process start.
type EngineMetrics struct {
	RecommendationCycles int64   `json:"recommendation_cycles"`
	CycleErrorRate       float64 `json:"cycle_error_rate"`
	FallbackRate         float64 `json:"fallback_rate"`
	SnapshotHitRate      float64 `json:"snapshot_hit_rate"`
	GeneratorErrors      int64   `json:"generator_errors"`
	Period               string  `json:"period"`
}
