package sinks

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSinksFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "sinks.yaml")
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sinks file: %v", err)
	}
	return file
}

func TestLoadRegistryYAML(t *testing.T) {
	file := writeSinksFile(t, `
sinks:
  - id: audit-webhook
    type: http
    http:
      url: http://127.0.0.1:9090/events
      headers:
        X-Source: forum-sentinel
  - id: moderation-queue
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.us-east-1.amazonaws.com/123/queue
      region: us-east-1
`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if got := len(reg.All()); got != 2 {
		t.Fatalf("expected 2 sinks, got %d", got)
	}

	cfg, ok := reg.ByID("audit-webhook")
	if !ok {
		t.Fatalf("audit-webhook not found")
	}
	if cfg.HTTP.Method != "POST" {
		t.Fatalf("method should default to POST, got %s", cfg.HTTP.Method)
	}
	if cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout should default, got %d", cfg.HTTP.TimeoutSeconds)
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "audit-webhook" {
		t.Fatalf("expected only audit-webhook enabled, got %v", enabled)
	}
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	file := writeSinksFile(t, `
sinks:
  - id: dup
    type: http
    http:
      url: http://a.example
  - id: dup
    type: http
    http:
      url: http://b.example
`)

	if _, err := LoadRegistry(file); err == nil {
		t.Fatalf("expected duplicate sink error, got nil")
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"sqs missing region", `
sinks:
  - id: q
    type: sqs
    sqs:
      uri: https://sqs.example/queue
`},
		{"sns missing topic", `
sinks:
  - id: n
    type: sns
    sns:
      region: us-east-1
`},
		{"http missing url", `
sinks:
  - id: h
    type: http
    http:
      method: POST
`},
		{"pubsub missing topic", `
sinks:
  - id: p
    type: gcppubsub
    gcppubsub:
      project_id: proj
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file := writeSinksFile(t, tc.content)
			if _, err := LoadRegistry(file); err == nil {
				t.Fatalf("expected validation error, got nil")
			}
		})
	}
}
