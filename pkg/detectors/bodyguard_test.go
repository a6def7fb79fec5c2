package detectors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

type recordingLogger struct {
	errorCount int
	warnCount  int
}

func (l *recordingLogger) InfoObj(string, string, interface{})  {}
func (l *recordingLogger) DebugObj(string, string, interface{}) {}
func (l *recordingLogger) WarnObj(string, string, interface{})  { l.warnCount++ }
func (l *recordingLogger) ErrorObj(string, string, interface{}) { l.errorCount++ }

func newTestBodyguard(t *testing.T, client HTTPClient, log Logger) *bodyguardDetector {
	t.Helper()

	det, err := newBodyguardDetector(DetectorConfig{
		ID:    "bodyguard-1",
		Type:  TypeBodyguard,
		Table: "result_bodyguard",
		Config: map[string]any{
			ConfigAPIKeyKey:    "key123",
			ConfigChannelIDKey: "channel-9",
		},
	}, Environment{
		BaseURL: "http://forum.local:8000",
		Client:  client,
		Log:     log,
	})
	if err != nil {
		t.Fatalf("newBodyguardDetector: %v", err)
	}
	return det.(*bodyguardDetector)
}

func fullRecord() domain.ContentRecord {
	return domain.ContentRecord{
		ContentID:      42,
		Message:        "you are terrible",
		PostedAt:       time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		AuthorID:       i64Ptr(11),
		AuthorUsername: strPtr("alice"),
		AuthorSlug:     strPtr("alice"),
		ThreadID:       i64Ptr(7),
		ThreadTitle:    strPtr("Welcome"),
		ThreadSlug:     strPtr("welcome-thread"),
	}
}

func TestBodyguardPrepareRequestMissingIdentifiers(t *testing.T) {
	det := newTestBodyguard(t, &fakeHTTPClient{}, nil)

	rec := fullRecord()
	rec.AuthorID = nil
	_, err := det.PrepareRequest(rec)
	var mapErr *domain.MappingError
	if !errors.As(err, &mapErr) || mapErr.Field != "author identifier" {
		t.Fatalf("expected author identifier MappingError, got %v", err)
	}

	rec = fullRecord()
	rec.ThreadID = nil
	_, err = det.PrepareRequest(rec)
	if !errors.As(err, &mapErr) || mapErr.Field != "post identifier" {
		t.Fatalf("expected post identifier MappingError, got %v", err)
	}
}

func TestBodyguardPrepareRequestShape(t *testing.T) {
	det := newTestBodyguard(t, &fakeHTTPClient{}, nil)

	req, err := det.PrepareRequest(fullRecord())
	if err != nil {
		t.Fatalf("PrepareRequest: %v", err)
	}

	breq := req.(*BodyguardRequest)
	content := breq.Content
	if content.Reference != "welcome-thread/7/post/42/" {
		t.Fatalf("Reference = %s", content.Reference)
	}
	if content.Context.TopLevelReference != "welcome-thread/7" {
		t.Fatalf("TopLevelReference = %s", content.Context.TopLevelReference)
	}
	if content.Context.Permalink != "http://forum.local:8000/t/welcome-thread/7/post/42/" {
		t.Fatalf("Permalink = %s", content.Context.Permalink)
	}
	if content.Context.From.Data.Identifier != "11" {
		t.Fatalf("author identifier = %s", content.Context.From.Data.Identifier)
	}
	if content.Context.From.Data.Permalink != "http://forum.local:8000/u/alice/11/posts/" {
		t.Fatalf("author permalink = %s", content.Context.From.Data.Permalink)
	}
	if content.Context.Post.Data.Identifier != "7" {
		t.Fatalf("post identifier = %s", content.Context.Post.Data.Identifier)
	}
	if content.Context.Post.Data.Title != "Welcome" {
		t.Fatalf("post title = %s", content.Context.Post.Data.Title)
	}
}

func TestBodyguardEvaluateSendsEnvelope(t *testing.T) {
	client := &fakeHTTPClient{resp: &fakeResponse{body: []byte(`{"data":[]}`), status: http.StatusOK}}
	det := newTestBodyguard(t, client, nil)

	req, err := det.PrepareRequest(fullRecord())
	if err != nil {
		t.Fatalf("PrepareRequest: %v", err)
	}
	if _, err := det.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if client.url != bodyguardDefaultEndpoint {
		t.Fatalf("url = %s", client.url)
	}
	if client.headers["X-Api-Key"] != "key123" {
		t.Fatalf("X-Api-Key = %s", client.headers["X-Api-Key"])
	}

	envelope, ok := client.jsonBody.(analyzeEnvelope)
	if !ok {
		t.Fatalf("body is %T, want analyzeEnvelope", client.jsonBody)
	}
	if envelope.ChannelID != "channel-9" {
		t.Fatalf("ChannelID = %s", envelope.ChannelID)
	}
	if len(envelope.Contents) != 1 {
		t.Fatalf("Contents length = %d, want single-item batch", len(envelope.Contents))
	}

	// The nested payload must serialize with the provider's field names.
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	for _, field := range []string{`"channelId"`, `"topLevelReference"`, `"publishedAt"`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("envelope missing %s: %s", field, raw)
		}
	}
}

func TestBodyguardEvaluateTransportFailure(t *testing.T) {
	client := &fakeHTTPClient{err: errors.New("dial timeout")}
	det := newTestBodyguard(t, client, nil)

	req, err := det.PrepareRequest(fullRecord())
	if err != nil {
		t.Fatalf("PrepareRequest: %v", err)
	}
	_, err = det.Evaluate(context.Background(), req)
	var connErr *domain.ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
}

func TestBodyguardNormalizeData(t *testing.T) {
	det := newTestBodyguard(t, &fakeHTTPClient{}, nil)

	body := []byte(`{"data":[{
		"type":"HATEFUL",
		"severity":"HIGH",
		"recommendedAction":"REMOVE",
		"analyzedAt":"2024-05-01T10:30:00.123Z",
		"meta":{"classifications":["insult","threat"],"directedAt":"someone"}
	}]}`)

	results, err := det.Normalize(&BodyguardResponse{detector: det.id, ContentID: 42, Body: body})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	res := results[0]
	if res.ContentType != "HATEFUL" || res.Severity != "HIGH" || res.RecommendedAction != "REMOVE" {
		t.Fatalf("verdict fields wrong: %+v", res)
	}
	if res.Classifications != "insult,threat" {
		t.Fatalf("Classifications = %s", res.Classifications)
	}
	if res.DirectedAt == nil || *res.DirectedAt != "someone" {
		t.Fatalf("DirectedAt = %v", res.DirectedAt)
	}
	want := time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC)
	if !res.AnalyzedAt.Equal(want) {
		t.Fatalf("AnalyzedAt = %v, want %v", res.AnalyzedAt, want)
	}
}

func TestBodyguardNormalizeMissingType(t *testing.T) {
	det := newTestBodyguard(t, &fakeHTTPClient{}, nil)

	body := []byte(`{"data":[{"severity":"LOW"}]}`)
	_, err := det.Normalize(&BodyguardResponse{detector: det.id, ContentID: 42, Body: body})
	var mapErr *domain.MappingError
	if !errors.As(err, &mapErr) {
		t.Fatalf("expected MappingError, got %v", err)
	}
}

func TestBodyguardNormalizeErrorItems(t *testing.T) {
	log := &recordingLogger{}
	det := newTestBodyguard(t, &fakeHTTPClient{}, log)

	body := []byte(`{"errors":[{"code":"BAD_CHANNEL"},{"code":"QUOTA"}]}`)
	results, err := det.Normalize(&BodyguardResponse{detector: det.id, ContentID: 42, Body: body})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results for error response, got %v", results)
	}
	if log.errorCount != 2 {
		t.Fatalf("expected one error log per item, got %d", log.errorCount)
	}
}

func TestBodyguardNormalizeUnknownShape(t *testing.T) {
	log := &recordingLogger{}
	det := newTestBodyguard(t, &fakeHTTPClient{}, log)

	results, err := det.Normalize(&BodyguardResponse{detector: det.id, ContentID: 42, Body: []byte(`{"status":"ok"}`)})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results for unknown shape, got %v", results)
	}
	if log.warnCount != 1 {
		t.Fatalf("expected one warning, got %d", log.warnCount)
	}
}
