package sinks

import (
	"time"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

// Event represents the payload delivered downstream after a detection result
// has been persisted.
type Event struct {
	DetectorID string                 `json:"detector_id"`
	ContentID  int64                  `json:"content_id"`
	Result     domain.DetectionResult `json:"result"`
	EmittedAt  time.Time              `json:"emitted_at"`
}

// NewEvent constructs an Event for the given detection result.
func NewEvent(res domain.DetectionResult) Event {
	return Event{
		DetectorID: res.Detector,
		ContentID:  res.ContentID,
		Result:     res,
		EmittedAt:  time.Now().UTC(),
	}
}
