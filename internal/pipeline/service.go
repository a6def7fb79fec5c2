package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/internal/logger"
	"github.com/nestlogic/forum-sentinel/pkg/detectors"
	"github.com/nestlogic/forum-sentinel/pkg/sinks"
)

// ContentFetcher retrieves the denormalized record for a content id.
type ContentFetcher interface {
	Fetch(ctx context.Context, contentID int64) (domain.ContentRecord, error)
}

// ResultSaver persists one canonical result and returns the generated row id.
type ResultSaver interface {
	Save(ctx context.Context, res domain.DetectionResult) (int64, error)
	Table() string
}

// EventSender forwards persisted results downstream (optional).
type EventSender interface {
	Send(ctx context.Context, evt sinks.Event) (int, error)
}

// Service runs one full detection pass per notification: fetch the record,
// then run every registered detector through prepare, evaluate, normalize and
// save. Detectors run concurrently; a pass does not finish until all of them
// complete. The immutable record is the only state shared between them.
type Service struct {
	fetcher ContentFetcher
	dets    []detectors.Detector
	savers  map[string]ResultSaver
	sender  EventSender
}

// NewService wires the pipeline with its detectors and per-detector savers
// (keyed by detector id). The sender may be nil when no sinks are configured.
func NewService(fetcher ContentFetcher, dets []detectors.Detector, savers map[string]ResultSaver, sender EventSender) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("content fetcher must not be nil")
	}
	if len(dets) == 0 {
		return nil, fmt.Errorf("no detectors configured")
	}
	for _, det := range dets {
		if _, ok := savers[det.ID()]; !ok {
			return nil, fmt.Errorf("no result saver configured for detector %q", det.ID())
		}
	}

	return &Service{
		fetcher: fetcher,
		dets:    dets,
		savers:  savers,
		sender:  sender,
	}, nil
}

// Process executes a detection pass for the given content id. Per-detector
// failures are logged and aggregated into the returned error; they never
// abort sibling detectors.
func (s *Service) Process(ctx context.Context, contentID int64) error {
	record, err := s.fetcher.Fetch(ctx, contentID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			logger.WarnObj("content record not found", "fetch_result", map[string]any{
				"content_id": contentID,
			})
			return err
		}
		return fmt.Errorf("fetch content %d: %w", contentID, err)
	}

	errCh := make(chan error, len(s.dets))
	var wg sync.WaitGroup
	for _, det := range s.dets {
		wg.Add(1)
		go func(det detectors.Detector) {
			defer wg.Done()
			if err := s.runDetector(ctx, det, record); err != nil {
				logger.ErrorObj("detector pass failed", "detector_error", map[string]any{
					"detector_id": det.ID(),
					"content_id":  contentID,
					"error":       err.Error(),
				})
				errCh <- err
			}
		}(det)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// runDetector drives one detector through prepare, evaluate, normalize, save.
func (s *Service) runDetector(ctx context.Context, det detectors.Detector, record domain.ContentRecord) error {
	req, err := det.PrepareRequest(record)
	if err != nil {
		return fmt.Errorf("prepare request for detector %s: %w", det.ID(), err)
	}

	raw, err := det.Evaluate(ctx, req)
	if err != nil {
		return fmt.Errorf("evaluate detector %s: %w", det.ID(), err)
	}

	results, err := det.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize response for detector %s: %w", det.ID(), err)
	}

	saver := s.savers[det.ID()]
	for _, res := range results {
		rowID, err := saver.Save(ctx, res)
		if err != nil {
			return fmt.Errorf("store result for detector %s: %w", det.ID(), err)
		}
		logger.InfoObj("detection result stored", "detection_result", map[string]any{
			"detector_id": det.ID(),
			"content_id":  res.ContentID,
			"table":       saver.Table(),
			"row_id":      rowID,
		})

		if s.sender != nil {
			if _, err := s.sender.Send(ctx, sinks.NewEvent(res)); err != nil {
				logger.WarnObj("result event delivery failed", "sink_error", map[string]any{
					"detector_id": det.ID(),
					"content_id":  res.ContentID,
					"error":       err.Error(),
				})
			}
		}
	}

	return nil
}
