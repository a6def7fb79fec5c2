package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/pkg/detectors"
	"github.com/nestlogic/forum-sentinel/pkg/sinks"
)

type fakeFetcher struct {
	rec   domain.ContentRecord
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, contentID int64) (domain.ContentRecord, error) {
	f.calls++
	if f.err != nil {
		return domain.ContentRecord{}, f.err
	}
	rec := f.rec
	rec.ContentID = contentID
	return rec, nil
}

type fakeSaver struct {
	table string
	err   error

	mu    sync.Mutex
	saved []domain.DetectionResult
}

func (s *fakeSaver) Save(_ context.Context, res domain.DetectionResult) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	s.saved = append(s.saved, res)
	s.mu.Unlock()
	return int64(len(s.saved)), nil
}

func (s *fakeSaver) Table() string { return s.table }

type fakeSender struct {
	mu     sync.Mutex
	events []sinks.Event
	err    error
}

func (s *fakeSender) Send(_ context.Context, evt sinks.Event) (int, error) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

type fakeToken struct{ id string }

func (t *fakeToken) DetectorID() string { return t.id }

type fakeDetector struct {
	id         string
	prepareErr error
	evalErr    error
	normErr    error
	results    []domain.DetectionResult
}

func (d *fakeDetector) ID() string { return d.id }

func (d *fakeDetector) PrepareRequest(domain.ContentRecord) (detectors.Request, error) {
	if d.prepareErr != nil {
		return nil, d.prepareErr
	}
	return &fakeToken{id: d.id}, nil
}

func (d *fakeDetector) Evaluate(_ context.Context, req detectors.Request) (detectors.RawResponse, error) {
	if d.evalErr != nil {
		return nil, d.evalErr
	}
	return &fakeToken{id: req.DetectorID()}, nil
}

func (d *fakeDetector) Normalize(detectors.RawResponse) ([]domain.DetectionResult, error) {
	if d.normErr != nil {
		return nil, d.normErr
	}
	return d.results, nil
}

func result(detector string, contentID int64) domain.DetectionResult {
	return domain.DetectionResult{
		Detector:       detector,
		ContentID:      contentID,
		AnalyzedAt:     time.Now().UTC(),
		Classification: "Ham",
	}
}

func TestProcessSavesAndPublishes(t *testing.T) {
	det := &fakeDetector{id: "akismet-1", results: []domain.DetectionResult{result("akismet-1", 42)}}
	saver := &fakeSaver{table: "result_akismet"}
	sender := &fakeSender{}

	svc, err := NewService(&fakeFetcher{}, []detectors.Detector{det},
		map[string]ResultSaver{"akismet-1": saver}, sender)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), 42))
	require.Len(t, saver.saved, 1)
	require.Equal(t, int64(42), saver.saved[0].ContentID)
	require.Len(t, sender.events, 1)
	require.Equal(t, "akismet-1", sender.events[0].DetectorID)
}

func TestProcessFetchNotFound(t *testing.T) {
	det := &fakeDetector{id: "akismet-1"}
	saver := &fakeSaver{table: "result_akismet"}
	fetcher := &fakeFetcher{err: &domain.NotFoundError{ContentID: 42}}

	svc, err := NewService(fetcher, []detectors.Detector{det},
		map[string]ResultSaver{"akismet-1": saver}, nil)
	require.NoError(t, err)

	err = svc.Process(context.Background(), 42)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Empty(t, saver.saved)
}

func TestProcessDetectorFailureIsIsolated(t *testing.T) {
	failing := &fakeDetector{
		id:         "bodyguard-1",
		prepareErr: &domain.MappingError{Detector: "bodyguard-1", Field: "author identifier"},
	}
	healthy := &fakeDetector{id: "akismet-1", results: []domain.DetectionResult{result("akismet-1", 42)}}

	akismetSaver := &fakeSaver{table: "result_akismet"}
	bodyguardSaver := &fakeSaver{table: "result_bodyguard"}

	svc, err := NewService(&fakeFetcher{}, []detectors.Detector{failing, healthy},
		map[string]ResultSaver{
			"akismet-1":   akismetSaver,
			"bodyguard-1": bodyguardSaver,
		}, nil)
	require.NoError(t, err)

	err = svc.Process(context.Background(), 42)
	var mapErr *domain.MappingError
	require.ErrorAs(t, err, &mapErr)

	require.Len(t, akismetSaver.saved, 1, "the healthy detector must still complete")
	require.Empty(t, bodyguardSaver.saved)
}

func TestProcessSaveFailure(t *testing.T) {
	det := &fakeDetector{id: "akismet-1", results: []domain.DetectionResult{result("akismet-1", 42)}}
	saver := &fakeSaver{table: "result_akismet", err: &domain.StorageError{Table: "result_akismet", Err: errors.New("down")}}

	svc, err := NewService(&fakeFetcher{}, []detectors.Detector{det},
		map[string]ResultSaver{"akismet-1": saver}, nil)
	require.NoError(t, err)

	err = svc.Process(context.Background(), 42)
	var storageErr *domain.StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestProcessSinkFailureIsNonFatal(t *testing.T) {
	det := &fakeDetector{id: "akismet-1", results: []domain.DetectionResult{result("akismet-1", 42)}}
	saver := &fakeSaver{table: "result_akismet"}
	sender := &fakeSender{err: errors.New("webhook down")}

	svc, err := NewService(&fakeFetcher{}, []detectors.Detector{det},
		map[string]ResultSaver{"akismet-1": saver}, sender)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), 42))
	require.Len(t, saver.saved, 1)
}

func TestNewServiceRequiresSaverPerDetector(t *testing.T) {
	det := &fakeDetector{id: "akismet-1"}
	_, err := NewService(&fakeFetcher{}, []detectors.Detector{det}, nil, nil)
	require.Error(t, err)
}
