package typesense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storeops/typesearch/internal/domain"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return NewClient(Config{
		Host:             u.Hostname(),
		Port:             port,
		Protocol:         "http",
		APIKey:           "test-key",
		CollectionPrefix: "shop",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCollectionNamePrefixing(t *testing.T) {
	cfg := Config{CollectionPrefix: "shop"}
	assert.Equal(t, "shop_products", cfg.CollectionName("products"))

	bare := Config{}
	assert.Equal(t, "products", bare.CollectionName("products"))
}

func TestSearchSendsAPIKeyAndParams(t *testing.T) {
	var gotHeader, gotPath, gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-TYPESENSE-API-KEY")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"found": 2, "page": 1, "hits": [
			{"document": {"id": "7", "name": "Redmi Note 12"}},
			{"document": {"id": "9", "name": "Redmi Note 13"}}
		]}`)
	})

	params := url.Values{}
	params.Set("q", "redmi")
	params.Set("per_page", "12")

	page, err := client.Search(context.Background(), "products", params)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotHeader)
	assert.Equal(t, "/collections/shop_products/documents/search", gotPath)
	assert.Contains(t, gotQuery, "q=redmi")

	assert.Equal(t, 2, page.Found)
	assert.Equal(t, 12, page.PerPage)
	assert.Equal(t, []string{"7", "9"}, page.IDs())
}

func TestSearchEngineError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "query malformed"}`, http.StatusBadRequest)
	})

	_, err := client.Search(context.Background(), "products", url.Values{})
	require.Error(t, err)

	var engineErr *EngineError
	require.True(t, errors.As(err, &engineErr))
	assert.Equal(t, http.StatusBadRequest, engineErr.StatusCode)
	assert.Contains(t, engineErr.Body, "query malformed")
}

func TestSearchConnectionError(t *testing.T) {
	client := NewClient(Config{
		Host: "127.0.0.1", Port: 1, Protocol: "http", APIKey: "k",
		Timeout: 200 * time.Millisecond,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.Search(context.Background(), "products", url.Values{})
	require.Error(t, err)

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
}

func TestCreateCollectionConflict(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"message": "collection already exists"}`)
	})

	_, err := client.CreateCollection(context.Background(), domain.CollectionProducts.Schema())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCollectionExists))
}

func TestCreateCollectionAppliesPrefix(t *testing.T) {
	var gotBody string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"name": "shop_products", "num_documents": 0}`)
	})

	created, err := client.CreateCollection(context.Background(), domain.CollectionProducts.Schema())
	require.NoError(t, err)
	assert.Equal(t, "shop_products", created.Name)
	assert.Contains(t, gotBody, `"name":"shop_products"`)
	assert.Contains(t, gotBody, `"default_sorting_field":"name"`)
}

func TestDeleteCollectionIdempotent(t *testing.T) {
	t.Run("existing collection", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			fmt.Fprint(w, `{"status": "deleted"}`)
		})

		result, err := client.DeleteCollection(context.Background(), "products")
		require.NoError(t, err)
		assert.Equal(t, "deleted", result.Status)
	})

	t.Run("missing collection is still a success", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message": "not found"}`, http.StatusNotFound)
		})

		result, err := client.DeleteCollection(context.Background(), "products")
		require.NoError(t, err)
		assert.Equal(t, "deleted", result.Status)
	})
}

func TestImportDocumentsNDJSON(t *testing.T) {
	var gotBody, gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, "{\"success\": true}\n{\"success\": true}\n")
	})

	docs := []any{
		map[string]string{"id": "1", "name": "One"},
		map[string]string{"id": "2", "name": "Two"},
	}
	require.NoError(t, client.ImportDocuments(context.Background(), "products", docs))

	assert.Equal(t, "action=upsert", gotQuery)
	lines := strings.Split(strings.TrimSpace(gotBody), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"1"`)
	assert.Contains(t, lines[1], `"id":"2"`)
}

func TestImportDocumentsPartialFailure(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			`{"success": true}`,
			`{"success": false, "error": "field name must be a string"}`,
			`{"success": true}`,
			`{"success": false, "error": "document id missing"}`,
		}, "\n"))
	})

	docs := []any{
		map[string]string{"id": "1"}, map[string]string{"id": "2"},
		map[string]string{"id": "3"}, map[string]string{"id": "4"},
	}
	err := client.ImportDocuments(context.Background(), "products", docs)
	require.Error(t, err)

	var partial *PartialImportError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.Succeeded)
	assert.Equal(t, 2, partial.Failed)
	assert.Equal(t, "field name must be a string", partial.FirstError)
}

func TestImportDocumentsEmptyBatchSkipsCall(t *testing.T) {
	called := false
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	require.NoError(t, client.ImportDocuments(context.Background(), "products", nil))
	assert.False(t, called)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			fmt.Fprint(w, `{"ok": true}`)
		})
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("unhealthy", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"ok": false}`)
		})
		assert.Error(t, client.Health(context.Background()))
	})
}

func TestUpsertPresetPrefixesName(t *testing.T) {
	var gotPath string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		fmt.Fprint(w, `{"name": "shop_storefront"}`)
	})

	err := client.UpsertPreset(context.Background(), "storefront", map[string]any{
		"query_by": "name,sku",
	})
	require.NoError(t, err)
	assert.Equal(t, "/presets/shop_storefront", gotPath)
}

func TestGetCollectionStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/shop_products", r.URL.Path)
		fmt.Fprint(w, `{"name": "shop_products", "num_documents": 1234}`)
	})

	schema, err := client.GetCollection(context.Background(), "products")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), schema.NumDocuments)
}
