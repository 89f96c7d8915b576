package model

import "time"

// BatchSummary is the run-level rollup handed to the report consumer
type BatchSummary struct {
	Total             int            `json:"total"`
	ByStatus          map[Status]int `json:"by_status"`
	ByAction          map[Action]int `json:"by_action"`
	AverageConfidence float64        `json:"average_confidence"`
	CacheHits         int            `json:"cache_hits"`
	Errors            int            `json:"errors"`
	Duration          time.Duration  `json:"duration"`
	Usage             Usage          `json:"usage"`
	EstimatedCostUSD  float64        `json:"estimated_cost_usd"`
}

// BatchReport is the ordered per-citation output plus its summary
type BatchReport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	MotionType  string            `json:"motion_type,omitempty"`
	Results     []VerificationRun `json:"results"`
	Summary     BatchSummary      `json:"summary"`
}
