//go:generate mockgen -source=$GOFILE -package=$GOPACKAGE -destination=./mock/$GOFILE

// Package console drives a single processing run from creation through
// terminal completion, appending classified console lines into a bounded
// buffer and exposing the run's lifecycle state machine.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	runsmodel "github.com/hitesh22rana/docsync/internal/model/runs"
	"github.com/hitesh22rana/docsync/internal/pkg/datastructures/ringbuffer"
	"github.com/hitesh22rana/docsync/internal/pkg/svc"
	"github.com/hitesh22rana/docsync/internal/runs"
)

var (
	// ErrRunInProgress is returned when a run is already running or a
	// start is already in flight. At most one run per orchestrator.
	ErrRunInProgress = errors.New("console: a run is already in progress")

	// ErrStartRejected is returned when the caller's prepare gate
	// rejected the start before any network call.
	ErrStartRejected = errors.New("console: start rejected by prepare gate")
)

// EventStream yields run events in server sequence order.
type EventStream interface {
	Recv() (*runsmodel.RunEvent, error)
	Close() error
}

// RunsClient provides the run operations the orchestrator drives.
type RunsClient interface {
	CreateRun(ctx context.Context, req *runs.CreateRunRequest) (*runs.CreateRunResponse, error)
	StreamEvents(ctx context.Context, runID string, afterSequence uint64) (EventStream, error)
}

// Orchestrator owns one run at a time: idle -> running -> {succeeded,
// failed}, re-entering via running on every start-over. It is the sole
// producer for its console buffer.
type Orchestrator struct {
	validator *validator.Validate
	tp        trace.Tracer
	logger    *zap.Logger
	client    RunsClient
	buffer    *ringbuffer.RingBuffer[runsmodel.ConsoleLine]

	mu           sync.Mutex
	status       runsmodel.RunStatus
	runID        string
	completed    runsmodel.CompletedDetails
	inFlight     bool
	cancelStream context.CancelFunc
	done         chan struct{}
	lineSeq      uint64
}

// New creates a new orchestrator writing into buffer. The buffer must
// outlive the orchestrator and take writes from no other producer.
func New(validation *validator.Validate, client RunsClient, buffer *ringbuffer.RingBuffer[runsmodel.ConsoleLine], logger *zap.Logger) *Orchestrator {
	done := make(chan struct{})
	close(done)

	return &Orchestrator{
		validator: validation,
		tp:        otel.Tracer(svc.Info().GetName()),
		logger:    logger,
		client:    client,
		buffer:    buffer,
		status:    runsmodel.RunStatusIdle,
		done:      done,
	}
}

// StartRunRequest holds the request parameters for starting a run.
type StartRunRequest struct {
	ConfigurationID string            `validate:"required"`
	Mode            runsmodel.RunMode `validate:"required,oneof=validation extraction"`
	Options         map[string]any
}

// StartOptions carries optional start behavior.
type StartOptions struct {
	// Prepare runs before any network call; returning false rejects the
	// start with ErrStartRejected.
	Prepare func() bool

	// OnError is invoked when creation or consumption fails for any
	// reason other than caller cancellation.
	OnError func(error)
}

// StartedRun represents a successfully started run.
type StartedRun struct {
	RunID     string
	StartedAt time.Time
}

// StartRun creates a run and begins consuming its event stream in the
// background. Returns ErrRunInProgress without mutating any state when a
// run is already active, and ErrStartRejected when the prepare gate says
// no. Cancellation during creation leaves the status untouched and never
// reaches OnError; any other failure sets the status to failed and does.
func (o *Orchestrator) StartRun(ctx context.Context, req *StartRunRequest, opts *StartOptions) (started *StartedRun, err error) {
	ctx, span := o.tp.Start(ctx, "Orchestrator.StartRun")
	defer func() {
		if err != nil {
			span.SetStatus(otelcodes.Error, err.Error())
			span.RecordError(err)
		}
		span.End()
	}()

	// Validate the request
	if err = o.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	// Single-flight guard: one run per orchestrator at a time.
	o.mu.Lock()
	if o.inFlight || o.status == runsmodel.RunStatusRunning {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	o.inFlight = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if opts != nil && opts.Prepare != nil && !opts.Prepare() {
		return nil, ErrStartRejected
	}

	// Reset per-run state: drop any stale stream handle, clear the
	// console, forget the previous completion.
	o.mu.Lock()
	if o.cancelStream != nil {
		o.cancelStream()
		o.cancelStream = nil
	}
	o.status = runsmodel.RunStatusRunning
	o.runID = ""
	o.completed = nil
	done := make(chan struct{})
	o.done = done
	o.mu.Unlock()
	o.buffer.Clear()

	created, err := o.client.CreateRun(ctx, &runs.CreateRunRequest{
		ConfigurationID: req.ConfigurationID,
		Mode:            req.Mode,
		Options:         req.Options,
	})
	if err != nil {
		if isCancellation(err) {
			close(done)
			return nil, err
		}
		o.finishWithError(err, opts)
		close(done)
		return nil, err
	}

	startedAt := time.Now()
	streamCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	o.runID = created.ID
	o.cancelStream = cancel
	o.mu.Unlock()

	go o.consume(streamCtx, created.ID, opts, done)

	return &StartedRun{RunID: created.ID, StartedAt: startedAt}, nil
}

// consume reads the run's event stream until the terminal event, a
// failure, or cancellation. The done channel closes on every path.
func (o *Orchestrator) consume(ctx context.Context, runID string, opts *StartOptions, done chan struct{}) {
	defer close(done)

	stream, err := o.client.StreamEvents(ctx, runID, 0)
	if err != nil {
		if isCancellation(err) {
			return
		}
		o.finishWithError(err, opts)
		return
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				o.logger.Warn("run event stream ended without a terminal event",
					zap.String("run_id", runID),
				)
				return
			}
			if isCancellation(err) {
				return
			}
			o.finishWithError(err, opts)
			return
		}
		if event == nil {
			continue
		}

		o.buffer.Push(o.lineFromEvent(event))

		if event.Name == runsmodel.EventRunCompleted {
			o.completeRun(event.Payload)
			return
		}
	}
}

// lineFromEvent builds the console line for one stream event. The line ID
// falls back to a locally generated monotonic identifier, the message to
// the event name, and the timestamp to now.
func (o *Orchestrator) lineFromEvent(event *runsmodel.RunEvent) runsmodel.ConsoleLine {
	id := event.ID
	if id == "" {
		o.mu.Lock()
		o.lineSeq++
		id = fmt.Sprintf("local-%d", o.lineSeq)
		o.mu.Unlock()
	}

	message := event.Message
	if message == "" {
		message = event.Name
	}

	timestamp := event.Timestamp
	if timestamp == "" {
		timestamp = runsmodel.Now()
	}

	return runsmodel.ConsoleLine{
		ID:        id,
		Level:     runsmodel.ParseLogLevel(event.Level),
		Message:   message,
		Timestamp: timestamp,
		Origin:    event.Origin(),
		Raw:       event.Payload,
	}
}

// completeRun freezes the terminal payload and resolves the final status.
func (o *Orchestrator) completeRun(payload map[string]any) {
	details := runsmodel.CompletedDetails(payload)

	o.mu.Lock()
	o.completed = details
	if details.Succeeded() {
		o.status = runsmodel.RunStatusSucceeded
	} else {
		o.status = runsmodel.RunStatusFailed
	}
	o.mu.Unlock()
}

// finishWithError marks the run failed and reports the failure.
func (o *Orchestrator) finishWithError(err error, opts *StartOptions) {
	o.mu.Lock()
	o.status = runsmodel.RunStatusFailed
	o.mu.Unlock()

	o.logger.Error("run failed", zap.Error(err))
	if opts != nil && opts.OnError != nil {
		opts.OnError(err)
	}
}

// Cancel aborts the active event stream, if any. Cancelling is
// idempotent and never changes the run status or reaches OnError.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancelStream
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Clear cancels any active stream and resets the orchestrator to idle,
// emptying the console buffer.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	if o.cancelStream != nil {
		o.cancelStream()
		o.cancelStream = nil
	}
	o.status = runsmodel.RunStatusIdle
	o.runID = ""
	o.completed = nil
	o.mu.Unlock()

	o.buffer.Clear()
}

// Status returns the current lifecycle state.
func (o *Orchestrator) Status() runsmodel.RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// RunID returns the active run's identifier, or "" before creation.
func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runID
}

// CompletedDetails returns the frozen terminal payload, or nil while no
// run has completed.
func (o *Orchestrator) CompletedDetails() runsmodel.CompletedDetails {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.completed
}

// Done returns a channel closed when consumption for the current run has
// finished. Closed while no run is active.
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// isCancellation reports whether the error is a caller abort.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
