package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/storeops/typesearch/pkg/httpclient"
	"github.com/storeops/typesearch/pkg/middleware"
)

// adminClient talks to the service's admin API. Calls go through a circuit
// breaker so a flapping service fails fast during scripted runs.
type adminClient struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
}

func newAdminClient() *adminClient {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	base := httpclient.New(httpclient.Config{
		Timeout:         2 * time.Minute, // full syncs take a while
		MaxRetries:      2,
		RetryWaitMin:    time.Second,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 4,
	})

	return &adminClient{
		http:    httpclient.NewCircuitBreakerClient(base, httpclient.DefaultCircuitBreakerConfig("typesearch-admin"), logger),
		baseURL: serverURL,
		apiKey:  apiKey,
	}
}

func (c *adminClient) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set(middleware.APIKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return httpclient.ParseResponseError(resp, "typesearch")
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
