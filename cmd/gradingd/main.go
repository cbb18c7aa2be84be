package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-assessment/internal/api/http"
	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/config"
	"github.com/mind-engage/mindengage-assessment/internal/correction"
	"github.com/mind-engage/mindengage-assessment/internal/db"
	"github.com/mind-engage/mindengage-assessment/internal/events"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
	"github.com/mind-engage/mindengage-assessment/internal/logging"
	"github.com/mind-engage/mindengage-assessment/internal/metrics"
)

func main() {
	seedPath := flag.String("seed", "", "JSON file with questions and contexts to load at startup")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, eventLog, ready, closeStore, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("store open failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	if *seedPath != "" {
		if err := seed(context.Background(), store, *seedPath); err != nil {
			logger.Fatal("seed failed", zap.String("file", *seedPath), zap.Error(err))
		}
		logger.Info("seed loaded", zap.String("file", *seedPath))
	}

	engine := grading.NewEngine(
		grading.WithStatementPolicy(grading.ParseStatementPolicy(cfg.StatementPolicy)),
		grading.WithLogger(logger.Named("grading")),
	)
	opts := []correction.Option{correction.WithLogger(logger.Named("correction"))}
	if eventLog != nil {
		opts = append(opts, correction.WithEvents(eventLog))
	}
	svc := correction.NewService(store, store, store, engine, opts...)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(logger.Named("http")), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.EnableMetrics {
		metrics.Init()
		r.Use(metrics.Middleware)
		r.Handle("/metrics", metrics.Handler())
	}

	api.Mount(r, engine, svc, store)
	if eventLog != nil {
		api.MountEvents(r, eventLog)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := ready(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

type readiness func(context.Context) error

// openStore picks the answer store for cfg. SQL drivers also get the event log.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (assessment.Store, *events.Repo, readiness, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory store; answers are lost on restart")
		return assessment.NewInMemoryStore(), nil, func(context.Context) error { return nil }, func() {}, nil

	case config.StoreSQLite, config.StorePostgres:
		dbh, err := db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return assessment.NewSQLStore(dbh, cfg.StoreDriver),
			events.NewRepo(dbh, cfg.EventSiteID),
			pinger(dbh),
			func() { _ = dbh.Close() },
			nil

	case config.StoreMongo:
		client, err := db.OpenMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		store := assessment.NewMongoStore(client.Database(cfg.MongoDatabase))
		if err := store.InitializeIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, nil,
			func(ctx context.Context) error { return client.Ping(ctx, nil) },
			func() { _ = client.Disconnect(context.Background()) },
			nil
	}
	return nil, nil, nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func pinger(dbh *sql.DB) readiness {
	return func(ctx context.Context) error { return dbh.PingContext(ctx) }
}

type seedFile struct {
	Questions []assessment.Question `json:"questions"`
	Contexts  []assessment.Context  `json:"contexts"`
}

func seed(ctx context.Context, store assessment.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f seedFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	for _, q := range f.Questions {
		if err := store.PutQuestion(ctx, q); err != nil {
			return fmt.Errorf("question %s: %w", q.ID, err)
		}
	}
	for _, c := range f.Contexts {
		if err := store.PutContext(ctx, c); err != nil {
			return fmt.Errorf("context %s: %w", c.ID, err)
		}
	}
	return nil
}
