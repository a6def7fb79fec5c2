package detectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/internal/htmltext"
)

const bodyguardDefaultEndpoint = "https://bamboo.bodyguard.ai/api/analyze"

// bodyguardDetector is the context-classifier variant: it submits the post
// with its author and thread context and receives a severity-graded analysis.
type bodyguardDetector struct {
	id        string
	baseURL   string
	endpoint  string
	apiKey    string
	channelID string
	stripHTML bool
	client    HTTPClient
	log       Logger
	now       func() time.Time
}

// BodyguardRequest is the nested analyze payload built from a content record.
type BodyguardRequest struct {
	detector string

	ContentID int64
	Content   bodyguardContent
}

func (r *BodyguardRequest) DetectorID() string { return r.detector }

type bodyguardContent struct {
	Text        string           `json:"text"`
	Reference   string           `json:"reference,omitempty"`
	PublishedAt string           `json:"publishedAt,omitempty"`
	Context     bodyguardContext `json:"context"`
}

type bodyguardContext struct {
	TopLevelReference string          `json:"topLevelReference,omitempty"`
	Permalink         string          `json:"permalink,omitempty"`
	From              bodyguardAuthor `json:"from"`
	Post              bodyguardPost   `json:"post"`
}

type bodyguardAuthor struct {
	Type string              `json:"type"`
	Data bodyguardAuthorData `json:"data"`
}

type bodyguardAuthorData struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username,omitempty"`
	Permalink  string `json:"permalink,omitempty"`
}

type bodyguardPost struct {
	Type string            `json:"type"`
	Data bodyguardPostData `json:"data"`
}

type bodyguardPostData struct {
	Identifier  string `json:"identifier"`
	Title       string `json:"title,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Permalink   string `json:"permalink,omitempty"`
}

// BodyguardResponse carries the raw analyze response body.
type BodyguardResponse struct {
	detector string

	ContentID int64
	Body      []byte
}

func (r *BodyguardResponse) DetectorID() string { return r.detector }

// analyzeEnvelope is the single-item batch request sent to the endpoint.
type analyzeEnvelope struct {
	ChannelID string             `json:"channelId"`
	Contents  []bodyguardContent `json:"contents"`
}

// analyzeResult is the subset of the analyze response we consume; unknown
// fields are ignored.
type analyzeResult struct {
	Data []struct {
		Type              string `json:"type"`
		Severity          string `json:"severity"`
		RecommendedAction string `json:"recommendedAction"`
		AnalyzedAt        string `json:"analyzedAt"`
		Meta              struct {
			Classifications []string `json:"classifications"`
			DirectedAt      *string  `json:"directedAt"`
		} `json:"meta"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// newBodyguardDetector builds the context-classifier detector from config.
func newBodyguardDetector(cfg DetectorConfig, env Environment) (Detector, error) {
	apiKey := ConfigString(cfg, ConfigAPIKeyKey, "")
	if apiKey == "" {
		return nil, fmt.Errorf("detector %q missing api_key configuration", cfg.ID)
	}
	channelID := ConfigString(cfg, ConfigChannelIDKey, "")
	if channelID == "" {
		return nil, fmt.Errorf("detector %q missing channel_id configuration", cfg.ID)
	}

	client := env.Client
	if client == nil {
		client = DefaultHTTPClient(0)
	}

	return &bodyguardDetector{
		id:        cfg.ID,
		baseURL:   env.BaseURL,
		endpoint:  ConfigString(cfg, ConfigEndpointKey, bodyguardDefaultEndpoint),
		apiKey:    apiKey,
		channelID: channelID,
		stripHTML: ConfigBool(cfg, ConfigStripHTMLKey, false),
		client:    client,
		log:       ensureLogger(env.Log),
		now:       time.Now,
	}, nil
}

func (d *bodyguardDetector) ID() string { return d.id }

// PrepareRequest maps a content record to the nested analyze shape. The
// author and post identifiers are mandatory; optional context fields are
// included only when present on the record.
func (d *bodyguardDetector) PrepareRequest(record domain.ContentRecord) (Request, error) {
	if record.AuthorID == nil {
		return nil, &domain.MappingError{Detector: d.id, Field: "author identifier"}
	}
	if record.ThreadID == nil {
		return nil, &domain.MappingError{Detector: d.id, Field: "post identifier"}
	}

	text := record.Message
	if d.stripHTML {
		text = htmltext.Strip(record.Message)
	}

	content := bodyguardContent{
		Text:        text,
		PublishedAt: isoTimestamp(record.PostedAt),
	}

	slug := strPtrValue(record.ThreadSlug)
	threadID := *record.ThreadID
	if slug != "" {
		content.Reference = fmt.Sprintf("%s/%d/post/%d/", slug, threadID, record.ContentID)
		content.Context.TopLevelReference = fmt.Sprintf("%s/%d", slug, threadID)
		content.Context.Permalink = postPermalink(d.baseURL, slug, threadID, record.ContentID)
	}

	author := bodyguardAuthorData{
		Identifier: strconv.FormatInt(*record.AuthorID, 10),
		Username:   strPtrValue(record.AuthorUsername),
	}
	if userSlug := strPtrValue(record.AuthorSlug); userSlug != "" {
		author.Permalink = userPermalink(d.baseURL, userSlug, *record.AuthorID)
	}
	content.Context.From = bodyguardAuthor{Type: "AUTHOR", Data: author}

	post := bodyguardPostData{
		Identifier: strconv.FormatInt(threadID, 10),
		Title:      strPtrValue(record.ThreadTitle),
	}
	if record.ThreadPostedAt != nil {
		post.PublishedAt = isoTimestamp(*record.ThreadPostedAt)
	}
	if slug != "" {
		post.Permalink = threadPermalink(d.baseURL, slug, threadID)
	}
	content.Context.Post = bodyguardPost{Type: "TEXT", Data: post}

	return &BodyguardRequest{
		detector:  d.id,
		ContentID: record.ContentID,
		Content:   content,
	}, nil
}

// Evaluate sends the single-item batch to the analyze endpoint.
func (d *bodyguardDetector) Evaluate(ctx context.Context, req Request) (RawResponse, error) {
	breq, ok := req.(*BodyguardRequest)
	if !ok {
		return nil, fmt.Errorf("bodyguard detector received incompatible request for %q", req.DetectorID())
	}

	payload := analyzeEnvelope{
		ChannelID: d.channelID,
		Contents:  []bodyguardContent{breq.Content},
	}

	headers := map[string]string{"X-Api-Key": d.apiKey}
	resp, err := d.client.PostJSON(ctx, d.endpoint, headers, payload)
	if err != nil {
		return nil, &domain.ConnectivityError{Detector: d.id, Err: err}
	}

	return &BodyguardResponse{
		detector:  d.id,
		ContentID: breq.ContentID,
		Body:      resp.Body(),
	}, nil
}

// Normalize maps the analyze response to canonical results. A data list
// yields one result per item; an errors list is logged per item and yields
// no results; any other shape yields no results with a warning.
func (d *bodyguardDetector) Normalize(raw RawResponse) ([]domain.DetectionResult, error) {
	bresp, ok := raw.(*BodyguardResponse)
	if !ok {
		return nil, fmt.Errorf("bodyguard detector received incompatible response for %q", raw.DetectorID())
	}

	var parsed analyzeResult
	if err := json.Unmarshal(bresp.Body, &parsed); err != nil {
		d.log.WarnObj("bodyguard response not decodable", "bodyguard_response", map[string]any{
			"detector_id": d.id,
			"content_id":  bresp.ContentID,
			"body":        responseSnippet(bresp.Body),
		})
		return nil, nil
	}

	switch {
	case parsed.Data != nil:
		results := make([]domain.DetectionResult, 0, len(parsed.Data))
		for _, item := range parsed.Data {
			if item.Type == "" {
				return nil, &domain.MappingError{Detector: d.id, Field: "type"}
			}

			analyzedAt := d.now().UTC()
			if item.AnalyzedAt != "" {
				if t, err := time.Parse(time.RFC3339Nano, item.AnalyzedAt); err == nil {
					analyzedAt = t.UTC()
				}
			}

			results = append(results, domain.DetectionResult{
				Detector:          d.id,
				ContentID:         bresp.ContentID,
				AnalyzedAt:        analyzedAt,
				ContentType:       item.Type,
				Severity:          item.Severity,
				Classifications:   strings.Join(item.Meta.Classifications, ","),
				DirectedAt:        item.Meta.DirectedAt,
				RecommendedAction: item.RecommendedAction,
			})
		}
		return results, nil

	case parsed.Errors != nil:
		for _, item := range parsed.Errors {
			d.log.ErrorObj("bodyguard returned error item", "bodyguard_error", map[string]any{
				"detector_id": d.id,
				"content_id":  bresp.ContentID,
				"error":       string(item),
			})
		}
		return nil, nil

	default:
		d.log.WarnObj("bodyguard returned unknown response shape", "bodyguard_response", map[string]any{
			"detector_id": d.id,
			"content_id":  bresp.ContentID,
			"body":        responseSnippet(bresp.Body),
		})
		return nil, nil
	}
}
