// Package changes consumes the document change feed: a long-lived SSE
// stream resumed from a server-issued cursor.
package changes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	changesmodel "github.com/hitesh22rana/docsync/internal/model/changes"
	"github.com/hitesh22rana/docsync/internal/pkg/httperr"
	"github.com/hitesh22rana/docsync/internal/pkg/sse"
	"github.com/hitesh22rana/docsync/internal/pkg/svc"
)

// Client opens change streams against the docsync API. It owns no state
// between calls: every Stream invocation is a fresh cursor-scoped session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	validator  *validator.Validate
	tp         trace.Tracer
	logger     *zap.Logger
}

// New creates a new change stream client. A nil httpClient selects
// http.DefaultClient; the client must not carry a global timeout, since
// streams are open-ended.
func New(baseURL string, httpClient *http.Client, validation *validator.Validate, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		validator:  validation,
		tp:         otel.Tracer(svc.Info().GetName()),
		logger:     logger,
	}
}

// StreamRequest holds the request parameters for opening the change
// stream.
type StreamRequest struct {
	// Cursor is the position to resume from.
	Cursor string `validate:"required"`

	// Limit caps the server-side batch size. Zero omits the parameter.
	Limit int

	// Sort is the listing sort order the row snapshots follow.
	Sort string

	// Query is the free-text listing query.
	Query string

	// Filters is the JSON-encoded listing filter set.
	Filters string
}

// Stream opens the change stream and returns a lazy event sequence. The
// sequence is infinite until the caller cancels ctx or the server closes
// the connection; restarting means calling Stream again with a fresh
// cursor. A 410 carrying a latestCursor surfaces as *httperr.ResyncError,
// any other non-success status as *httperr.APIError, and a caller abort
// as the context error.
func (c *Client) Stream(ctx context.Context, req *StreamRequest) (stream *Stream, err error) {
	ctx, span := c.tp.Start(ctx, "Client.Stream")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	// Validate the request
	if err = c.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL + "/changes/stream")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	query := url.Values{}
	query.Set("cursor", req.Cursor)
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Sort != "" {
		query.Set("sort", req.Sort)
	}
	if req.Query != "" {
		query.Set("q", req.Query)
	}
	if req.Filters != "" {
		query.Set("filters", req.Filters)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// A caller abort racing the connect is a cancellation, not a
		// transport failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("opening change stream: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, httperr.ReadError(resp)
	}

	return &Stream{
		ctx:     ctx,
		scanner: sse.NewScanner(resp.Body),
		body:    resp.Body,
		logger:  c.logger,
	}, nil
}

// Stream is a lazy sequence of change events read from one open
// connection. Not safe for concurrent use.
type Stream struct {
	ctx     context.Context
	scanner *sse.Scanner
	body    io.Closer
	logger  *zap.Logger
}

// Recv returns the next change event. Frames that do not decode to a
// valid event are dropped and consumption continues. Returns io.EOF when
// the server closes the stream (after flushing any trailing fragment as a
// final frame), and the context error when the caller aborted, even when
// the abort raced an in-flight read.
func (s *Stream) Recv() (*changesmodel.ChangeEvent, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Next() {
			if err := s.scanner.Err(); err != nil {
				if ctxErr := s.ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("reading change stream: %w", err)
			}
			return nil, io.EOF
		}

		event := changesmodel.DecodeChangeEvent(s.logger, sse.ParseFrame(s.scanner.Text()))
		if event == nil {
			continue
		}
		return event, nil
	}
}

// Close releases the underlying connection. Safe to call on every
// completion path; closing twice is a no-op at the transport level.
func (s *Stream) Close() error {
	return s.body.Close()
}
