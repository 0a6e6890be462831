// Package httperr converts non-success docsync API responses into typed
// errors so callers can discriminate between "resynchronize and resume"
// and plain transport failure.
package httperr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 4096

// APIError represents a non-success response from the docsync API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the trimmed response body, kept for diagnostics.
	Body string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("docsync: HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("docsync: HTTP %d", e.StatusCode)
}

// ResyncError reports that the consumer's cursor is too old to resume
// from. The caller must discard state keyed by the old cursor and restart
// ingestion from LatestCursor.
type ResyncError struct {
	// LatestCursor is the position to restart from.
	LatestCursor string

	// OldestCursor is the oldest position the server still holds.
	// Empty when the server did not report one.
	OldestCursor string
}

func (e *ResyncError) Error() string {
	return fmt.Sprintf("docsync: cursor too old, resync required from cursor %q", e.LatestCursor)
}

// resyncBody mirrors the HTTP 410 response body.
type resyncBody struct {
	Detail struct {
		Error        string  `json:"error"`
		LatestCursor string  `json:"latestCursor"`
		OldestCursor *string `json:"oldestCursor"`
	} `json:"detail"`
}

// ReadError converts a non-success response into a typed error. A 410
// whose body carries a latestCursor becomes a ResyncError; everything
// else, including a 410 without one, becomes an APIError carrying the
// status code.
func ReadError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusGone {
		var payload resyncBody
		if json.Unmarshal(body, &payload) == nil && payload.Detail.LatestCursor != "" {
			resyncErr := &ResyncError{LatestCursor: payload.Detail.LatestCursor}
			if payload.Detail.OldestCursor != nil {
				resyncErr.OldestCursor = *payload.Detail.OldestCursor
			}
			return resyncErr
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
