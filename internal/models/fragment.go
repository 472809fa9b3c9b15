package models

import "time"

// FragmentMeta holds the known metadata fields attached to a source fragment.
// Unknown keys from the ingest side are preserved in Extra so that new
// metadata added upstream does not require a schema change here.
type FragmentMeta struct {
	Source    string         `json:"source,omitempty" toml:"source" yaml:"source"`
	Topic     string         `json:"topic,omitempty" toml:"topic" yaml:"topic"`
	RiskLevel string         `json:"risk_level,omitempty" toml:"risk_level" yaml:"risk_level"`
	Extra     map[string]any `json:"extra,omitempty" toml:"extra" yaml:"extra"`
}

// Fragment represents one immutable unit of source content eligible for
// transformation into an article. Fragments are owned by the content store;
// the generation pipeline only reads them.
type Fragment struct {
	Key  int64        `json:"key"`
	Text string       `json:"text"`
	Meta FragmentMeta `json:"meta"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConsumedKey records that a fragment was used in the current generation
// cycle. One record per fragment key; the record key in storage is the
// fragment key itself, which makes AddConsumedKey an atomic check-and-mark.
type ConsumedKey struct {
	Key        int64     `json:"key"`
	ArticleID  string    `json:"article_id,omitempty"` // Article produced from this fragment
	ConsumedAt time.Time `json:"consumed_at"`
}

// GenerationStats tracks pipeline bookkeeping counters. Single logical row.
type GenerationStats struct {
	TotalGenerated  int        `json:"total_generated"`
	CycleCount      int        `json:"cycle_count"`
	LastGeneratedAt *time.Time `json:"last_generated_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
