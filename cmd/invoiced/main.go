package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/async"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

func main() {
	cfg, err := common.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, err := app.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := server.NewGRPCServer(server.NewExtractionService(pipe, logger), logger)

	var queue *async.WorkerQueue
	if cfg.Inbox.Dir != "" {
		queue, err = startInbox(ctx, cfg, pipe, logger)
		if err != nil {
			logger.Error("failed to start inbox", "dir", cfg.Inbox.Dir, "error", err)
			os.Exit(1)
		}
	}

	logger.Info("invoiced listening", "addr", cfg.Server.GRPCAddr, "inbox", cfg.Inbox.Dir)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	if queue != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		queue.Shutdown(shutdownCtx)
		cancel()
	}
	grpcServer.GracefulStop()
}

// startInbox watches the inbox directory and feeds new text files to a
// worker queue that writes exports to the outbox.
func startInbox(ctx context.Context, cfg *common.Config, pipe *pipeline.Pipeline, logger *slog.Logger) (*async.WorkerQueue, error) {
	formats := make([]export.Format, 0, len(cfg.Inbox.Formats))
	for _, s := range cfg.Inbox.Formats {
		f, err := export.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	inbox := ingest.NewInbox(extract.NewTextFile(logger), pipe, export.NewService(logger), ingest.InboxConfig{
		OutDir:  cfg.Inbox.OutDir,
		Formats: formats,
	}, logger)

	queue := async.NewWorkerQueue(func(ctx context.Context, job async.Job) error {
		_, err := inbox.ProcessFile(ctx, job.Path, job.Force)
		return err
	}, logger,
		async.WithWorkers(cfg.Extract.Workers),
		async.WithQueueSize(512),
		async.WithProcessTimeout(cfg.LLM.Timeout+30*time.Second),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Inbox.Dir},
		InitialScan: true,
		Debounce:    cfg.Inbox.Debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		queue.Shutdown(context.Background())
		return nil, err
	}

	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				job := async.Job{Path: path, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
				if err := queue.Enqueue(ctx, job); err != nil {
					logger.Warn("inbox.enqueue.failed", "path", path, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("inbox.watch.error", "error", err)
			}
		}
	}()
	return queue, nil
}
