package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/storeops/typesearch/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseErrorStructured(t *testing.T) {
	resp := response(http.StatusBadRequest,
		`{"error":{"code":"INVALID_INPUT","message":"unknown collection type"}}`)

	err := ParseResponseError(resp, "search-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "search-service")
	assert.Contains(t, err.Error(), "unknown collection type")
}

func TestParseResponseErrorConflict(t *testing.T) {
	resp := response(http.StatusConflict,
		`{"error":{"code":"ALREADY_EXISTS","message":"collection exists"}}`)

	err := ParseResponseError(resp, "search-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestParseResponseErrorUnavailable(t *testing.T) {
	resp := response(http.StatusServiceUnavailable,
		`{"error":{"code":"SERVICE_UNAVAILABLE","message":"engine down"}}`)

	err := ParseResponseError(resp, "search-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}

func TestParseResponseErrorUnstructuredBody(t *testing.T) {
	resp := response(http.StatusBadGateway, "upstream timed out")

	err := ParseResponseError(resp, "search-service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timed out")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
