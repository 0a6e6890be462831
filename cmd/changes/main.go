package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hitesh22rana/docsync/internal/changes"
	"github.com/hitesh22rana/docsync/internal/config"
	changesmodel "github.com/hitesh22rana/docsync/internal/model/changes"
	"github.com/hitesh22rana/docsync/internal/pkg/datastructures/ringbuffer"
	"github.com/hitesh22rana/docsync/internal/pkg/httperr"
	"github.com/hitesh22rana/docsync/internal/pkg/logger"
	svcpkg "github.com/hitesh22rana/docsync/internal/pkg/svc"
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

	// Load the tailer configuration
	cfg, err := config.InitChangesConfig()
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

	log.Info("starting change feed tailer",
		zap.String("name", svcpkg.Info().GetName()),
		zap.String("version", svcpkg.Info().GetVersion()),
		zap.String("cursor", cfg.Cursor),
	)

	httpClient := &http.Client{
		Transport: &http.Transport{ResponseHeaderTimeout: cfg.ResponseHeaderTimeout},
	}
	client := changes.New(cfg.BaseURL, httpClient, validator.New(), log)
	buffer := ringbuffer.New[changesmodel.ChangeEvent](cfg.BufferCapacity, nil)

	// One coalesced report per flush, however many events arrived.
	unsubscribe := buffer.Subscribe(func() {
		snapshot := buffer.Snapshot()
		events := buffer.ToArray()
		if len(events) == 0 {
			return
		}
		latest := events[len(events)-1]
		log.Info("change feed updated",
			zap.Uint64("version", snapshot.Version),
			zap.Int("buffered", snapshot.Length),
			zap.String("cursor", latest.Cursor),
			zap.String("type", latest.Type),
		)
	})
	defer unsubscribe()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tail(ctx, log, client, buffer, cfg)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("change feed tailer stopped", zap.Error(err))
		return ExitError
	}

	return ExitOk
}

// tail consumes the change stream forever, reconnecting with backoff on
// transport failure and restarting from the server's latest cursor on
// resync.
func tail(ctx context.Context, log *zap.Logger, client *changes.Client, buffer *ringbuffer.RingBuffer[changesmodel.ChangeEvent], cfg *config.ChangesConfig) error {
	cursor := cfg.Cursor
	r := retrier.New(retrier.ExponentialBackoff(cfg.ReconnectAttempts, cfg.ReconnectBackoff), retryClassifier{})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.RunCtx(ctx, func(ctx context.Context) error {
			return consumeOnce(ctx, client, buffer, cfg, &cursor)
		})
		if err == nil {
			log.Info("change stream closed by server, reconnecting", zap.String("cursor", cursor))
			continue
		}

		var resyncErr *httperr.ResyncError
		if errors.As(err, &resyncErr) {
			// Position too old: discard state keyed by the old cursor and
			// restart ingestion from the server's latest.
			log.Warn("resync required",
				zap.String("latest_cursor", resyncErr.LatestCursor),
				zap.String("oldest_cursor", resyncErr.OldestCursor),
			)
			cursor = resyncErr.LatestCursor
			buffer.Clear()
			continue
		}

		return err
	}
}

// consumeOnce opens one cursor-scoped session and pushes events until the
// server closes the connection. The cursor advances with every event so a
// reconnect resumes where this session stopped.
func consumeOnce(ctx context.Context, client *changes.Client, buffer *ringbuffer.RingBuffer[changesmodel.ChangeEvent], cfg *config.ChangesConfig, cursor *string) error {
	stream, err := client.Stream(ctx, &changes.StreamRequest{
		Cursor:  *cursor,
		Limit:   cfg.Limit,
		Sort:    cfg.Sort,
		Query:   cfg.Query,
		Filters: cfg.Filters,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = stream.Close()
	}()

	for {
		event, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		*cursor = event.Cursor
		buffer.Push(*event)
	}
}

// retryClassifier retries transport failures only; resync and caller
// cancellation are handled by the outer loop.
type retryClassifier struct{}

func (retryClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}

	var resyncErr *httperr.ResyncError
	if errors.As(err, &resyncErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retrier.Fail
	}

	return retrier.Retry
}

// initSvcInfo initializes the service information.
func initSvcInfo() {
	svcpkg.SetVersion(version)
	svcpkg.SetName(name)
}
