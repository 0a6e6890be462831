package httperr

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestReadError(t *testing.T) {
	t.Parallel()

	t.Run("410 with latest cursor becomes a resync error", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusGone, `{"detail":{"error":"cursor too old","latestCursor":"184","oldestCursor":"90"}}`))

		var resyncErr *ResyncError
		assert.ErrorAs(t, err, &resyncErr)
		assert.Equal(t, "184", resyncErr.LatestCursor)
		assert.Equal(t, "90", resyncErr.OldestCursor)
	})

	t.Run("410 with null oldest cursor", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusGone, `{"detail":{"error":"cursor too old","latestCursor":"184","oldestCursor":null}}`))

		var resyncErr *ResyncError
		assert.ErrorAs(t, err, &resyncErr)
		assert.Equal(t, "184", resyncErr.LatestCursor)
		assert.Empty(t, resyncErr.OldestCursor)
	})

	t.Run("410 without latest cursor stays an api error", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusGone, `{"detail":{"error":"gone"}}`))

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusGone, apiErr.StatusCode)
	})

	t.Run("410 with unparseable body stays an api error", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusGone, `<html>gone</html>`))

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusGone, apiErr.StatusCode)
		assert.Equal(t, `<html>gone</html>`, apiErr.Body)
	})

	t.Run("other statuses become api errors with trimmed body", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusInternalServerError, "  boom  \n"))

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "boom", apiErr.Body)
	})

	t.Run("oversized body is truncated", func(t *testing.T) {
		t.Parallel()

		err := ReadError(response(http.StatusBadGateway, strings.Repeat("x", maxErrorBody*2)))

		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Len(t, apiErr.Body, maxErrorBody)
	})
}
