package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAcceptsMatchingKey(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(APIKeyHeader, "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyRejectsMissingOrWrongKey(t *testing.T) {
	handler := APIKey("secret")(okHandler())

	for _, presented := range []string{"", "wrong", "Secret"} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if presented != "" {
			req.Header.Set(APIKeyHeader, presented)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "presented %q", presented)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	}
}

func TestAPIKeyEmptyConfigDisablesCheck(t *testing.T) {
	handler := APIKey("")(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNoStoreSetsCacheControl(t *testing.T) {
	handler := NoStore()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recents", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
