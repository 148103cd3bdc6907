package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storeops/typesearch/internal/domain"
)

const apiKeyHeader = "X-TYPESENSE-API-KEY"

// Config holds the engine connection settings. It is immutable after
// construction and safe to share across goroutines.
type Config struct {
	Host             string
	Port             int
	Protocol         string
	APIKey           string
	CollectionPrefix string
	Timeout          time.Duration
}

// BaseURL returns the engine root URL, e.g. http://localhost:8108.
func (c Config) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", c.Protocol, c.Host, c.Port)
}

// CollectionName applies the deployment prefix to a base collection name.
// Presets share the same prefixing scheme.
func (c Config) CollectionName(base string) string {
	if c.CollectionPrefix == "" {
		return base
	}
	return c.CollectionPrefix + "_" + base
}

var engineRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "search_engine_request_duration_seconds",
		Help:    "Duration of search engine HTTP requests",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"operation", "status"},
)

func init() {
	prometheus.MustRegister(engineRequestDuration)
}

// Client is a typed HTTP wrapper around the engine API. It holds no state
// beyond the config and a pooled transport; all methods are safe for
// concurrent use. The client performs no retries; degradation policy lives
// with the callers.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an engine client. A zero Timeout defaults to 30s, the
// ceiling for every request this client sends.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "http"
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}
}

// Config returns the client's immutable configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Health checks engine availability via GET /health.
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/health", nil, "health")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &EngineError{Op: "health", StatusCode: status, Body: string(body)}
	}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if !out.OK {
		return &EngineError{Op: "health", StatusCode: status, Body: string(body)}
	}
	return nil
}

// CreateCollection creates a collection from the given schema. The schema
// name is prefixed before sending. A 409 conflict maps to ErrCollectionExists.
func (c *Client) CreateCollection(ctx context.Context, schema domain.CollectionSchema) (*domain.CollectionSchema, error) {
	schema.Name = c.cfg.CollectionName(schema.Name)

	payload, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode collection schema: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, "/collections", payload, "create_collection")
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		var created domain.CollectionSchema
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, fmt.Errorf("decode created collection: %w", err)
		}
		return &created, nil
	case status == http.StatusConflict:
		return nil, fmt.Errorf("create collection %s: %w", schema.Name, ErrCollectionExists)
	default:
		return nil, &EngineError{Op: "create_collection", StatusCode: status, Body: string(body)}
	}
}

// DeleteCollectionResult is the engine's response to a collection delete.
type DeleteCollectionResult struct {
	Status string `json:"status"`
}

// DeleteCollection drops a collection. Deleting a collection that does not
// exist is a success; the 404 is absorbed so the operation is idempotent.
func (c *Client) DeleteCollection(ctx context.Context, name string) (*DeleteCollectionResult, error) {
	prefixed := c.cfg.CollectionName(name)
	status, body, err := c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(prefixed), nil, "delete_collection")
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var out DeleteCollectionResult
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode delete response: %w", err)
		}
		if out.Status == "" {
			out.Status = "deleted"
		}
		return &out, nil
	case http.StatusNotFound:
		return &DeleteCollectionResult{Status: "deleted"}, nil
	default:
		return nil, &EngineError{Op: "delete_collection", StatusCode: status, Body: string(body)}
	}
}

// GetCollection retrieves a collection's schema and document count.
func (c *Client) GetCollection(ctx context.Context, name string) (*domain.CollectionSchema, error) {
	prefixed := c.cfg.CollectionName(name)
	status, body, err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(prefixed), nil, "get_collection")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &EngineError{Op: "get_collection", StatusCode: status, Body: string(body)}
	}

	var out domain.CollectionSchema
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return &out, nil
}

// ListCollections retrieves all collections known to the engine.
func (c *Client) ListCollections(ctx context.Context) ([]domain.CollectionSchema, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/collections", nil, "list_collections")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &EngineError{Op: "list_collections", StatusCode: status, Body: string(body)}
	}

	var out []domain.CollectionSchema
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode collections: %w", err)
	}
	return out, nil
}

// UpsertPreset stores a named search preset. The preset name carries the
// collection prefix so multiple deployments can share one engine.
func (c *Client) UpsertPreset(ctx context.Context, name string, value map[string]any) error {
	prefixed := c.cfg.CollectionName(name)
	payload, err := json.Marshal(map[string]any{"value": value})
	if err != nil {
		return fmt.Errorf("encode preset: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPut, "/presets/"+url.PathEscape(prefixed), payload, "upsert_preset")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return &EngineError{Op: "upsert_preset", StatusCode: status, Body: string(body)}
	}
	return nil
}

// RetrievePreset fetches a stored preset's value.
func (c *Client) RetrievePreset(ctx context.Context, name string) (map[string]any, error) {
	prefixed := c.cfg.CollectionName(name)
	status, body, err := c.do(ctx, http.MethodGet, "/presets/"+url.PathEscape(prefixed), nil, "retrieve_preset")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &EngineError{Op: "retrieve_preset", StatusCode: status, Body: string(body)}
	}

	var out struct {
		Value map[string]any `json:"value"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	return out.Value, nil
}

// UpsertDocument creates or updates a single document.
func (c *Client) UpsertDocument(ctx context.Context, collection string, doc any) error {
	prefixed := c.cfg.CollectionName(collection)
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	path := "/collections/" + url.PathEscape(prefixed) + "/documents?action=upsert"
	status, body, err := c.do(ctx, http.MethodPost, path, payload, "upsert_document")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return &EngineError{Op: "upsert_document", StatusCode: status, Body: string(body)}
	}
	return nil
}

// DeleteDocument removes a single document by ID. A 404 is absorbed so
// removal is idempotent.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	prefixed := c.cfg.CollectionName(collection)
	path := "/collections/" + url.PathEscape(prefixed) + "/documents/" + url.PathEscape(id)
	status, body, err := c.do(ctx, http.MethodDelete, path, nil, "delete_document")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return &EngineError{Op: "delete_document", StatusCode: status, Body: string(body)}
	}
	return nil
}

// ImportDocuments bulk-upserts documents via the NDJSON import endpoint, one
// document per line. The engine answers one JSON result line per input line;
// any failed line yields a *PartialImportError while the succeeded lines
// stay persisted. Import is at-least-once with no rollback.
func (c *Client) ImportDocuments(ctx context.Context, collection string, docs []any) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		line, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode import document: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	prefixed := c.cfg.CollectionName(collection)
	path := "/collections/" + url.PathEscape(prefixed) + "/documents/import?action=upsert"
	status, body, err := c.do(ctx, http.MethodPost, path, buf.Bytes(), "import_documents")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return &EngineError{Op: "import_documents", StatusCode: status, Body: string(body)}
	}

	succeeded := 0
	failed := 0
	firstError := ""
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		if line == "" {
			continue
		}
		var result struct {
			Success *bool  `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &result); err == nil && result.Success != nil && !*result.Success {
			failed++
			if firstError == "" {
				if result.Error != "" {
					firstError = result.Error
				} else {
					firstError = "unknown error"
				}
			}
			continue
		}
		succeeded++
	}

	if failed > 0 {
		return &PartialImportError{Succeeded: succeeded, Failed: failed, FirstError: firstError}
	}
	return nil
}

// Search runs a document search against a collection. The params come from
// the query composer; the client adds nothing beyond transport concerns.
func (c *Client) Search(ctx context.Context, collection string, params url.Values) (*domain.ResultPage, error) {
	prefixed := c.cfg.CollectionName(collection)
	path := "/collections/" + url.PathEscape(prefixed) + "/documents/search?" + params.Encode()

	status, body, err := c.do(ctx, http.MethodGet, path, nil, "search")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &EngineError{Op: "search", StatusCode: status, Body: string(body)}
	}

	var raw struct {
		Found int `json:"found"`
		Page  int `json:"page"`
		Hits  []struct {
			Document json.RawMessage `json:"document"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	page := &domain.ResultPage{
		Found: raw.Found,
		Page:  raw.Page,
		Hits:  make([]domain.SearchHit, 0, len(raw.Hits)),
	}
	if perPage := params.Get("per_page"); perPage != "" {
		page.PerPage, _ = strconv.Atoi(perPage)
	}
	for _, h := range raw.Hits {
		hit := domain.SearchHit{Document: h.Document}
		var idHolder struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(h.Document, &idHolder); err == nil {
			hit.ID = idHolder.ID
		}
		page.Hits = append(page.Hits, hit)
	}
	return page, nil
}

// do sends one request and returns the status code and fully-read body.
// Transport failures come back as *ConnectionError; status handling is the
// caller's job.
func (c *Client) do(ctx context.Context, method, path string, body []byte, op string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL()+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		engineRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		c.logger.DebugContext(ctx, "engine request failed",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return 0, nil, &ConnectionError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	engineRequestDuration.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return resp.StatusCode, nil, &ConnectionError{Op: op, Err: err}
	}
	return resp.StatusCode, respBody, nil
}
