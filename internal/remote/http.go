package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abhisek/studyplan/internal/progress"
)

// DefaultBaseURL is the JSONBin API root.
const DefaultBaseURL = "https://api.jsonbin.io"

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 512

// HTTPConfig configures an HTTPClient.
type HTTPConfig struct {
	BaseURL   string
	AccessKey string // sent as X-Access-Key on reads and writes
	MasterKey string // sent as X-Master-Key when creating documents

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// RatePerSecond limits outgoing requests; zero disables limiting.
	RatePerSecond float64

	Retry RetryConfig
}

// HTTPClient talks to a JSONBin v3 compatible document service.
type HTTPClient struct {
	cfg     HTTPConfig
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
	now     func() time.Time
}

// NewHTTPClient returns a client for cfg. A nil logger discards logs.
func NewHTTPClient(cfg HTTPConfig, log *zap.Logger) *HTTPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		log:     log.Named("remote.http"),
		now:     time.Now,
	}
}

type binRecord struct {
	Record progress.Snapshot `json:"record"`
}

type binMetadata struct {
	Metadata struct {
		ID string `json:"id"`
	} `json:"metadata"`
}

// Get fetches GET /v3/b/{handle}/latest and unwraps its record.
func (c *HTTPClient) Get(ctx context.Context, handle string) (progress.Snapshot, error) {
	var out binRecord
	err := c.do(ctx, "get", http.MethodGet, "/v3/b/"+handle+"/latest", nil, c.accessHeaders(), c.cfg.Retry, &out)
	if err != nil {
		return progress.Snapshot{}, err
	}
	if out.Record.Completion == nil {
		out.Record.Completion = make(map[string]bool)
	}
	return out.Record, nil
}

// Put replaces the document with PUT /v3/b/{handle}.
func (c *HTTPClient) Put(ctx context.Context, handle string, doc progress.Snapshot) error {
	return c.do(ctx, "put", http.MethodPut, "/v3/b/"+handle, doc, c.accessHeaders(), c.cfg.Retry, nil)
}

// Create stores doc with POST /v3/b and returns the new document id.
func (c *HTTPClient) Create(ctx context.Context, doc progress.Snapshot) (string, error) {
	h := http.Header{}
	if c.cfg.MasterKey != "" {
		h.Set("X-Master-Key", c.cfg.MasterKey)
	}
	h.Set("X-Bin-Private", "false")
	h.Set("X-Bin-Name", fmt.Sprintf("syllabus-%d", c.now().UnixMilli()))

	// POST is not idempotent: a retry after a lost response would leave an
	// orphaned duplicate document behind.
	var out binMetadata
	if err := c.do(ctx, "create", http.MethodPost, "/v3/b", doc, h, RetryConfig{MaxAttempts: 1}, &out); err != nil {
		return "", err
	}
	if out.Metadata.ID == "" {
		return "", fmt.Errorf("remote create: response carried no document id")
	}
	return out.Metadata.ID, nil
}

func (c *HTTPClient) accessHeaders() http.Header {
	h := http.Header{}
	if c.cfg.AccessKey != "" {
		h.Set("X-Access-Key", c.cfg.AccessKey)
	}
	return h
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, body any, headers http.Header, policy RetryConfig, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("remote %s: encode body: %w", op, err)
		}
	}

	start := time.Now()
	err := retry(ctx, policy, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return c.roundTrip(ctx, op, method, path, payload, headers, out)
	})

	c.log.Debug("remote request",
		zap.String("op", op),
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	return err
}

func (c *HTTPClient) roundTrip(ctx context.Context, op, method, path string, payload []byte, headers http.Header, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote %s: build request: %w", op, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("remote %s %s: %w", op, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote %s: decode response: %w", op, err)
	}
	return nil
}
