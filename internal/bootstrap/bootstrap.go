package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/core/usecase"
	"github.com/kirillkom/document-intake/internal/infrastructure/drafts/memory"
	"github.com/kirillkom/document-intake/internal/infrastructure/drafts/redisstore"
	"github.com/kirillkom/document-intake/internal/infrastructure/ocr/ollama"
	"github.com/kirillkom/document-intake/internal/infrastructure/pdf/render"
	"github.com/kirillkom/document-intake/internal/infrastructure/pdf/textlayer"
	"github.com/kirillkom/document-intake/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-intake/internal/infrastructure/records"
	"github.com/kirillkom/document-intake/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-intake/internal/infrastructure/resilience"
	"github.com/kirillkom/document-intake/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-intake/internal/observability/metrics"
)

const textLayerPageTimeout = 10 * time.Second

// App holds the wired intake stack for the API process.
type App struct {
	Config config.Config

	Intake      *usecase.IntakeUseCase
	Submissions *usecase.RecordSubmissionUseCase
	Archive     ports.ObjectStorage
	Metrics     *metrics.HTTPServerMetrics

	closers []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.NewHTTPServerMetrics("api")}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	drafts, err := app.draftStore(ctx)
	if err != nil {
		return nil, err
	}

	opts := []usecase.IntakeOption{
		usecase.WithObserver(app.Metrics),
		usecase.WithMaxDocumentBytes(cfg.MaxUploadBytes()),
	}

	if cfg.EventsEnabled {
		publishPolicy := resilience.PublishPolicy()
		publishPolicy.Observer = app.Metrics
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Name:               "document-intake-api",
			ResilienceExecutor: resilience.NewExecutor(publishPolicy),
		})
		if err != nil {
			return nil, fmt.Errorf("init event queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		opts = append(opts, usecase.WithCloseListeners(queue))
	}

	if cfg.ArchiveEnabled {
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init archive storage: %w", err)
		}
		app.Archive = storage
		opts = append(opts, usecase.WithArchive(storage))
	}

	if cfg.JournalEnabled {
		journal, err := app.journal(ctx)
		if err != nil {
			return nil, err
		}
		app.Submissions = usecase.NewRecordSubmissionUseCase(journal)
	}

	backend := NewRecordsClient(cfg)
	app.Intake = usecase.NewIntakeUseCase(
		drafts,
		backend,
		backend,
		NewSubjectExtractor(cfg, app.Metrics),
		render.New(),
		opts...,
	)

	ok = true
	return app, nil
}

// Worker holds what the journal worker needs: the event stream and the register.
type Worker struct {
	Config   config.Config
	Queue    ports.EventQueue
	Recorder ports.SubmissionRecorder
	Metrics  *metrics.WorkerMetrics

	closers []func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if !cfg.EventsEnabled || !cfg.JournalEnabled {
		return nil, fmt.Errorf("worker requires EVENTS_ENABLED and JOURNAL_ENABLED")
	}
	w := &Worker{Config: cfg, Metrics: metrics.NewWorkerMetrics("worker")}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	w.closers = append(w.closers, func() { closeDB(db) })
	repo := postgres.NewSubmissionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Name: "document-intake-worker"})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("init event queue: %w", err)
	}
	w.closers = append(w.closers, queue.Close)

	w.Queue = queue
	w.Recorder = usecase.NewRecordSubmissionUseCase(repo)
	return w, nil
}

func (w *Worker) Close() {
	closeAll(w.closers)
}

// NewSubjectExtractor wires the text layer reader and the OCR fallback.
// observer may be nil.
func NewSubjectExtractor(cfg config.Config, observer resilience.Observer) *usecase.SubjectExtractor {
	ocrPolicy := resilience.OCRPolicy(time.Duration(cfg.OCRTimeoutSeconds) * time.Second)
	ocrPolicy.RetryMaxAttempts = config.OCRMaxAttempts
	ocrPolicy.Observer = observer
	ocr := ollama.New(cfg.OllamaURL, cfg.OllamaOCRModel, ollama.WithExecutor(resilience.NewExecutor(ocrPolicy)))

	return usecase.NewSubjectExtractor(
		textlayer.New(textLayerPageTimeout),
		ocr,
		render.New(),
		cfg.OCRPDFFallback,
	)
}

// NewRecordsClient serves both department lookups and submissions.
func NewRecordsClient(cfg config.Config) *records.Client {
	return records.New(cfg.RecordsBaseURL, time.Duration(cfg.RecordsTimeoutSeconds)*time.Second)
}

func (a *App) draftStore(ctx context.Context) (ports.DraftStore, error) {
	switch a.Config.DraftStore {
	case "", "memory":
		return memory.New(), nil
	case "redis":
		client, err := redisstore.Connect(ctx, a.Config.RedisAddr, a.Config.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("init redis draft store: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return redisstore.New(
			client,
			time.Duration(a.Config.DraftTTLMinutes)*time.Minute,
			time.Duration(a.Config.DraftLockSeconds)*time.Second,
		), nil
	default:
		return nil, fmt.Errorf("unknown draft store %q", a.Config.DraftStore)
	}
}

func (a *App) journal(ctx context.Context) (ports.SubmissionJournal, error) {
	db, err := postgres.OpenDB(a.Config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { closeDB(db) })

	repo := postgres.NewSubmissionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

func (a *App) Close() {
	closeAll(a.closers)
	a.closers = nil
}

func closeAll(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Warn("postgres_close_failed", "error", err)
	}
}
