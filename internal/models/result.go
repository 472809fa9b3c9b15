package models

import "time"

// GenerateResult is the outcome of one pipeline run.
type GenerateResult struct {
	Success       bool      `json:"success"`
	Article       *Article  `json:"article,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CycleReset    bool      `json:"cycle_reset"`
	Warnings      []string  `json:"warnings,omitempty"`
	Duration      float64   `json:"duration_seconds"`
	FinishedAt    time.Time `json:"finished_at"`
}

// BatchResult aggregates the outcomes of a sequential batch run. Individual
// failures never abort the batch.
type BatchResult struct {
	Requested  int               `json:"requested"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Results    []*GenerateResult `json:"results"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// PipelineStatus is the read-only snapshot served by the status endpoint.
type PipelineStatus struct {
	Stats         GenerationStats `json:"stats"`
	PoolSize      int             `json:"pool_size"`
	ConsumedCount int             `json:"consumed_count"`
	ArticleCount  int             `json:"article_count"`
	Provider      string          `json:"provider"`
}
