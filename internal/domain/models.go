package domain

import "time"

// Domain contains core models shared across the pipeline.

// ContentRecord is the denormalized snapshot of a forum post joined with its
// author and containing thread, fetched once per notification. Nullable
// columns are modeled as pointers so detectors can distinguish an absent
// field from an empty one.
type ContentRecord struct {
	ContentID int64
	Message   string
	PostedAt  time.Time

	AuthorID       *int64
	AuthorUsername *string
	AuthorSlug     *string
	AuthorEmail    *string
	AuthorIP       *string

	ThreadID       *int64
	ThreadTitle    *string
	ThreadSlug     *string
	ThreadPostedAt *time.Time
}

// DetectionResult is the canonical, detector-tagged outcome persisted per
// content id. One of the two verdict groups is populated depending on the
// detector family that produced it.
type DetectionResult struct {
	Detector   string    `json:"detector"`
	ContentID  int64     `json:"content_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Content-classifier verdict (single label).
	Classification string `json:"classification,omitempty"`

	// Context-classifier verdict.
	ContentType       string  `json:"content_type,omitempty"`
	Severity          string  `json:"severity,omitempty"`
	Classifications   string  `json:"classifications,omitempty"`
	DirectedAt        *string `json:"directed_at,omitempty"`
	RecommendedAction string  `json:"recommended_action,omitempty"`
}
