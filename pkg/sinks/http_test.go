package sinks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

func TestHTTPSinkSendSuccess(t *testing.T) {
	var gotMethod, gotHeader string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Source")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sink, err := newHTTPSink(context.Background(), SinkConfig{
		ID:   "webhook-1",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{
			URL:            server.URL,
			Method:         "POST",
			Headers:        map[string]string{"X-Source": "forum-sentinel"},
			TimeoutSeconds: 2,
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPSink: %v", err)
	}

	evt := NewEvent(domain.DetectionResult{Detector: "akismet-1", ContentID: 42, Classification: "Spam"})
	if err := sink.Send(context.Background(), evt); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("method = %s", gotMethod)
	}
	if gotHeader != "forum-sentinel" {
		t.Fatalf("X-Source header = %s", gotHeader)
	}

	var decoded Event
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.DetectorID != "akismet-1" || decoded.ContentID != 42 {
		t.Fatalf("unexpected event body: %+v", decoded)
	}
	if decoded.Result.Classification != "Spam" {
		t.Fatalf("result classification = %s", decoded.Result.Classification)
	}
}

func TestHTTPSinkSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	sink, err := newHTTPSink(context.Background(), SinkConfig{
		ID:   "webhook-1",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{URL: server.URL, Method: "POST", TimeoutSeconds: 2},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPSink: %v", err)
	}

	if err := sink.Send(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error for 5xx response")
	}
}
