// Package runs creates processing runs and consumes their execution
// event streams.
package runs

import (
	"bytes"
	"context"
	"encoding/json"
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

	runsmodel "github.com/hitesh22rana/docsync/internal/model/runs"
	"github.com/hitesh22rana/docsync/internal/pkg/httperr"
	"github.com/hitesh22rana/docsync/internal/pkg/sse"
	"github.com/hitesh22rana/docsync/internal/pkg/svc"
)

// Client calls the runs API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	validator  *validator.Validate
	tp         trace.Tracer
	logger     *zap.Logger
}

// New creates a new runs client. A nil httpClient selects
// http.DefaultClient; the client must not carry a global timeout, since
// event streams are open-ended.
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

// CreateRunRequest holds the request parameters for creating a run.
type CreateRunRequest struct {
	ConfigurationID string            `json:"configuration_id" validate:"required"`
	Mode            runsmodel.RunMode `json:"mode"             validate:"required,oneof=validation extraction"`
	Options         map[string]any    `json:"options,omitempty"`
}

// CreateRunResponse represents the response of CreateRun.
type CreateRunResponse struct {
	ID string `json:"id"`
}

// CreateRun creates a new run and returns its identifier.
func (c *Client) CreateRun(ctx context.Context, req *CreateRunRequest) (res *CreateRunResponse, err error) {
	ctx, span := c.tp.Start(ctx, "Client.CreateRun")
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

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("creating run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, httperr.ReadError(resp)
	}

	res = &CreateRunResponse{}
	if err = json.NewDecoder(resp.Body).Decode(res); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if res.ID == "" {
		return nil, fmt.Errorf("run created without an id")
	}

	return res, nil
}

// StreamEvents opens the run's execution event stream, requesting events
// after the given sequence number. The error taxonomy matches the change
// stream: typed resync/API errors on open, context error on caller abort.
func (c *Client) StreamEvents(ctx context.Context, runID string, afterSequence uint64) (stream *Stream, err error) {
	ctx, span := c.tp.Start(ctx, "Client.StreamEvents")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	if runID == "" {
		return nil, fmt.Errorf("invalid request: run id is required")
	}

	endpoint, err := url.Parse(c.baseURL + "/runs/" + url.PathEscape(runID) + "/events/stream")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	query := url.Values{}
	query.Set("afterSequence", strconv.FormatUint(afterSequence, 10))
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("opening run event stream: %w", err)
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

// Stream is a lazy sequence of run events read from one open connection.
// Not safe for concurrent use.
type Stream struct {
	ctx     context.Context
	scanner *sse.Scanner
	body    io.Closer
	logger  *zap.Logger
}

// Recv returns the next run event, dropping frames that do not decode.
// Returns io.EOF when the server closes the stream and the context error
// when the caller aborted.
func (s *Stream) Recv() (*runsmodel.RunEvent, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Next() {
			if err := s.scanner.Err(); err != nil {
				if ctxErr := s.ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, fmt.Errorf("reading run event stream: %w", err)
			}
			return nil, io.EOF
		}

		event := runsmodel.DecodeRunEvent(s.logger, sse.ParseFrame(s.scanner.Text()))
		if event == nil {
			continue
		}
		return event, nil
	}
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
