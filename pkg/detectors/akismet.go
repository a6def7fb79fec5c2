package detectors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nestlogic/forum-sentinel/internal/domain"
	"github.com/nestlogic/forum-sentinel/internal/htmltext"
)

const (
	defaultUserIP    = "127.0.0.1"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; Win64; x64; rv:47.0) Gecko/20100101 Firefox/47.0"

	akismetDefaultCommentType = "reply"
	akismetEndpointTemplate   = "https://%s.rest.akismet.com/1.1/comment-check"
	akismetDebugHeader        = "X-Akismet-Debug-Help"

	labelHam  = "Ham"
	labelSpam = "Spam"
)

// akismetDetector is the content-classifier variant: it submits the post as a
// comment-check request and receives a discrete classification label back.
type akismetDetector struct {
	id          string
	blogURL     string
	endpoint    string
	apiKey      string
	isTest      bool
	commentType string
	stripHTML   bool
	overrides   *Overrides
	client      HTTPClient
	log         Logger
	now         func() time.Time
}

// AkismetRequest is the flattened comment-check payload built from a content record.
type AkismetRequest struct {
	detector string

	ContentID   int64
	UserIP      string
	UserAgent   string
	Author      string
	AuthorEmail string
	Content     string
	Permalink   string
	CommentType string
	CommentDate time.Time
}

func (r *AkismetRequest) DetectorID() string { return r.detector }

// AkismetResponse carries the raw classification label returned by the endpoint.
type AkismetResponse struct {
	detector string

	ContentID int64
	Label     string
}

func (r *AkismetResponse) DetectorID() string { return r.detector }

// newAkismetDetector builds the content-classifier detector from config.
func newAkismetDetector(cfg DetectorConfig, env Environment) (Detector, error) {
	apiKey := ConfigString(cfg, ConfigAPIKeyKey, "")
	if apiKey == "" {
		return nil, fmt.Errorf("detector %q missing api_key configuration", cfg.ID)
	}

	client := env.Client
	if client == nil {
		client = DefaultHTTPClient(0)
	}

	endpoint := ConfigString(cfg, ConfigEndpointKey, "")
	if endpoint == "" {
		endpoint = fmt.Sprintf(akismetEndpointTemplate, apiKey)
	}

	return &akismetDetector{
		id:          cfg.ID,
		blogURL:     env.BaseURL,
		endpoint:    endpoint,
		apiKey:      apiKey,
		isTest:      ConfigBool(cfg, ConfigIsTestKey, true),
		commentType: ConfigString(cfg, ConfigCommentTypeKey, akismetDefaultCommentType),
		stripHTML:   ConfigBool(cfg, ConfigStripHTMLKey, false),
		overrides:   env.Overrides,
		client:      client,
		log:         ensureLogger(env.Log),
		now:         time.Now,
	}, nil
}

func (d *akismetDetector) ID() string { return d.id }

// PrepareRequest maps a content record to the comment-check shape. The
// submitter IP and user agent fall back to fixed defaults and can be pinned
// per username via the static override tables.
func (d *akismetDetector) PrepareRequest(record domain.ContentRecord) (Request, error) {
	req := &AkismetRequest{
		detector:    d.id,
		ContentID:   record.ContentID,
		UserIP:      defaultUserIP,
		UserAgent:   defaultUserAgent,
		CommentType: d.commentType,
		CommentDate: record.PostedAt,
	}

	if record.AuthorIP != nil && *record.AuthorIP != "" {
		req.UserIP = *record.AuthorIP
	}

	username := strPtrValue(record.AuthorUsername)
	if username != "" {
		req.Author = username
		if ip, ok := d.overrides.IPFor(username); ok {
			req.UserIP = ip
		}
		if ua, ok := d.overrides.UserAgentFor(username); ok {
			req.UserAgent = ua
		}
	}

	req.AuthorEmail = strPtrValue(record.AuthorEmail)

	req.Content = record.Message
	if d.stripHTML {
		req.Content = htmltext.Strip(record.Message)
	}

	if record.ThreadSlug != nil && record.ThreadID != nil {
		req.Permalink = threadPermalink(d.blogURL, *record.ThreadSlug, *record.ThreadID)
	}

	return req, nil
}

// Evaluate submits the comment-check form and returns the raw label.
func (d *akismetDetector) Evaluate(ctx context.Context, req Request) (RawResponse, error) {
	areq, ok := req.(*AkismetRequest)
	if !ok {
		return nil, fmt.Errorf("akismet detector received incompatible request for %q", req.DetectorID())
	}

	form := url.Values{}
	form.Set("blog", d.blogURL)
	form.Set("user_ip", areq.UserIP)
	form.Set("user_agent", areq.UserAgent)
	form.Set("comment_content", areq.Content)
	form.Set("comment_type", areq.CommentType)
	form.Set("comment_date_gmt", isoTimestamp(areq.CommentDate))
	if areq.Author != "" {
		form.Set("comment_author", areq.Author)
	}
	if areq.AuthorEmail != "" {
		form.Set("comment_author_email", areq.AuthorEmail)
	}
	if areq.Permalink != "" {
		form.Set("permalink", areq.Permalink)
	}
	if d.isTest {
		form.Set("is_test", "1")
	}

	resp, err := d.client.PostForm(ctx, d.endpoint, map[string]string{"User-Agent": defaultUserAgent}, form)
	if err != nil {
		return nil, &domain.ConnectivityError{Detector: d.id, Err: err}
	}

	body := resp.Body()
	if help := resp.Header(akismetDebugHeader); help != "" {
		return nil, &domain.ProviderError{Detector: d.id, Status: resp.StatusCode(), Message: help}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &domain.ProviderError{Detector: d.id, Status: resp.StatusCode(), Message: responseSnippet(body)}
	}

	return &AkismetResponse{
		detector:  d.id,
		ContentID: areq.ContentID,
		Label:     strings.TrimSpace(string(body)),
	}, nil
}

// Normalize maps the discrete label to the canonical classification: 0 and 1
// are ham, 2 and 3 are spam, any other label passes through verbatim as an
// opaque classification.
func (d *akismetDetector) Normalize(raw RawResponse) ([]domain.DetectionResult, error) {
	aresp, ok := raw.(*AkismetResponse)
	if !ok {
		return nil, fmt.Errorf("akismet detector received incompatible response for %q", raw.DetectorID())
	}
	if aresp.Label == "" {
		return nil, &domain.MappingError{Detector: d.id, Field: "label"}
	}

	classification := aresp.Label
	if n, err := strconv.Atoi(aresp.Label); err == nil {
		switch n {
		case 0, 1:
			classification = labelHam
		case 2, 3:
			classification = labelSpam
		}
	}

	return []domain.DetectionResult{{
		Detector:       d.id,
		ContentID:      aresp.ContentID,
		AnalyzedAt:     d.now().UTC(),
		Classification: classification,
	}}, nil
}
