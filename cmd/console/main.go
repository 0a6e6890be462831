package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hitesh22rana/docsync/internal/config"
	"github.com/hitesh22rana/docsync/internal/console"
	runsmodel "github.com/hitesh22rana/docsync/internal/model/runs"
	"github.com/hitesh22rana/docsync/internal/pkg/datastructures/ringbuffer"
	"github.com/hitesh22rana/docsync/internal/pkg/logger"
	svcpkg "github.com/hitesh22rana/docsync/internal/pkg/svc"
	"github.com/hitesh22rana/docsync/internal/runs"
)

const (
	// ExitOk and ExitError are the exit codes.
	ExitOk = iota
	// ExitError is the exit code for errors.
	ExitError
)

var (
	// version is the service version.
	version string

	// name is the name of the service.
	name string
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize the service information
	initSvcInfo()

	// Load the console configuration
	cfg, err := config.InitConsoleConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, log := logger.Init(ctx)
	defer func() {
		_ = log.Sync()
	}()

	var options map[string]any
	if cfg.Options != "" {
		if err := json.Unmarshal([]byte(cfg.Options), &options); err != nil {
			log.Error("invalid run options", zap.Error(err))
			return ExitError
		}
	}

	log.Info("starting run console",
		zap.String("name", svcpkg.Info().GetName()),
		zap.String("version", svcpkg.Info().GetVersion()),
		zap.String("configuration_id", cfg.ConfigurationID),
		zap.String("mode", cfg.Mode),
	)

	httpClient := &http.Client{
		Transport: &http.Transport{ResponseHeaderTimeout: cfg.ResponseHeaderTimeout},
	}
	client := runs.New(cfg.BaseURL, httpClient, validator.New(), log)

	// Console lines flush on an interval tick so a burst of events renders
	// as one update.
	buffer := ringbuffer.New[runsmodel.ConsoleLine](cfg.BufferCapacity, func(flush func()) {
		time.AfterFunc(cfg.FlushInterval, flush)
	})
	orch := console.New(validator.New(), runsStreamer{client: client}, buffer, log)

	var renderMu sync.Mutex
	lastRendered := ""
	render := func() {
		renderMu.Lock()
		defer renderMu.Unlock()
		lastRendered = renderNew(buffer.ToArray(), lastRendered)
	}
	unsubscribe := buffer.Subscribe(render)
	defer unsubscribe()

	started, err := orch.StartRun(ctx, &console.StartRunRequest{
		ConfigurationID: cfg.ConfigurationID,
		Mode:            runsmodel.RunMode(cfg.Mode),
		Options:         options,
	}, &console.StartOptions{
		OnError: func(err error) {
			log.Error("run aborted", zap.Error(err))
		},
	})
	if err != nil {
		log.Error("failed to start run", zap.Error(err))
		return ExitError
	}
	log.Info("run started", zap.String("run_id", started.RunID))

	select {
	case <-ctx.Done():
		orch.Cancel()
		<-orch.Done()
		render()
		log.Info("run canceled", zap.String("run_id", started.RunID))
		return ExitOk
	case <-orch.Done():
	}

	// Pick up lines the final flush has not delivered yet.
	render()

	if details := orch.CompletedDetails(); details != nil {
		log.Info("run completed",
			zap.String("run_id", started.RunID),
			zap.String("status", details.Status()),
			zap.Any("execution", details.Execution()),
			zap.Any("artifacts", details.Artifacts()),
		)
	}

	if orch.Status() != runsmodel.RunStatusSucceeded {
		return ExitError
	}

	return ExitOk
}

// renderNew prints lines appended after lastID and returns the ID of the
// last rendered line. When lastID has already been overwritten in the
// ring, printing restarts from the oldest retained line.
func renderNew(lines []runsmodel.ConsoleLine, lastID string) string {
	start := 0
	if lastID != "" {
		for i := len(lines) - 1; i >= 0; i-- {
			if lines[i].ID == lastID {
				start = i + 1
				break
			}
		}
	}

	for _, line := range lines[start:] {
		fmt.Fprintf(os.Stdout, "%s [%s] %s: %s\n", line.Timestamp, line.Origin, line.Level, line.Message)
	}

	if len(lines) == 0 {
		return lastID
	}
	return lines[len(lines)-1].ID
}

// runsStreamer adapts the runs client to the orchestrator's client
// interface.
type runsStreamer struct {
	client *runs.Client
}

func (s runsStreamer) CreateRun(ctx context.Context, req *runs.CreateRunRequest) (*runs.CreateRunResponse, error) {
	return s.client.CreateRun(ctx, req)
}

func (s runsStreamer) StreamEvents(ctx context.Context, runID string, afterSequence uint64) (console.EventStream, error) {
	return s.client.StreamEvents(ctx, runID, afterSequence)
}

// initSvcInfo initializes the service information.
func initSvcInfo() {
	svcpkg.SetVersion(version)
	svcpkg.SetName(name)
}
