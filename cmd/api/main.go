package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	appanalysis "github.com/bryanwahyu/medscan/internal/application/analysis"
	appqueries "github.com/bryanwahyu/medscan/internal/application/queries"
	"github.com/bryanwahyu/medscan/internal/config"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/domain/query"
	"github.com/bryanwahyu/medscan/internal/infra/ai"
	leveldbp "github.com/bryanwahyu/medscan/internal/infra/db/leveldb"
	mysqlp "github.com/bryanwahyu/medscan/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/medscan/internal/infra/db/postgres"
	"github.com/bryanwahyu/medscan/internal/infra/dicom"
	"github.com/bryanwahyu/medscan/internal/infra/httpserver"
	"github.com/bryanwahyu/medscan/internal/infra/models"
	minioStore "github.com/bryanwahyu/medscan/internal/infra/storage"
	"github.com/bryanwahyu/medscan/internal/logging"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}
	logCloser := logging.Init(cfg.Logging)
	defer logCloser.Close()

	ctx := context.Background()
	health := map[string]middleware.HealthChecker{}

	// models
	modelOpts, err := models.OptionsFrom(cfg.Analysis)
	if err != nil {
		logrus.Fatalf("models config error: %v", err)
	}
	registry := models.NewRegistry(modelOpts)
	if cfg.Analysis.Warmup {
		if err := models.Warmup(ctx, registry); err != nil {
			logrus.Fatalf("model warmup error: %v", err)
		}
		logrus.WithField("models", len(registry)).Info("models loaded")
	}

	// repository
	repo, failures, closeRepo, err := openRepository(ctx, cfg.Database, health)
	if err != nil {
		logrus.Fatalf("database error: %v", err)
	}
	defer closeRepo.Close()

	svc := &appanalysis.Service{
		Models:        registry,
		Store:         appanalysis.NewStore(),
		Repo:          repo,
		Failures:      failures,
		Inspector:     dicom.NewInspector(),
		Clock:         modelOpts.Clock,
		DispatchDelay: cfg.Analysis.DispatchDelay,
		Overlap:       appanalysis.OverlapPolicy(cfg.Analysis.Overlap),
	}
	if cfg.Analysis.NoLatency {
		svc.DispatchDelay = 0
	}

	// init minio
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx, cfg.Minio)
		if err != nil {
			logrus.Fatalf("minio init error: %v", err)
		}
		svc.Images = store
		health["minio"] = store
	}

	// queries
	var src query.RandomSource
	if cfg.Analysis.RandomSeed > 0 {
		src = query.NewSeededSource(cfg.Analysis.RandomSeed)
	}
	assistant, err := ai.New(cfg.Assistant)
	if err != nil {
		logrus.Fatalf("assistant init error: %v", err)
	}
	querySvc := appqueries.NewService(query.NewEngine(src), assistant)

	ready := map[string]middleware.HealthChecker{
		"models": middleware.CheckFunc(func(context.Context) error {
			return modelsReady(registry, cfg.Analysis.Warmup)
		}),
	}
	for name, c := range health {
		ready[name] = c
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		defer limiter.Stop()
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Analysis:       svc,
		Queries:        querySvc,
		Health:         health,
		Ready:          ready,
		APIKeys:        cfg.Auth.APIKeys,
		RateLimiter:    limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":     addr,
			"database": cfg.Database.Driver,
			"overlap":  cfg.Analysis.Overlap,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logrus.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logrus.WithError(err).Error("shutdown error")
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type migrator interface {
	Migrate(context.Context) error
}

// openRepository picks the history store and failure log named by cfg.Driver
// and registers its health check. Driver "none" keeps only the latest result
// in memory and logs failures nowhere.
func openRepository(ctx context.Context, cfg config.DatabaseConfig, health map[string]middleware.HealthChecker) (domain.Repository, domain.FailureLog, io.Closer, error) {
	noop := closerFunc(func() error { return nil })

	switch cfg.Driver {
	case "none":
		return nil, nil, noop, nil
	case "leveldb":
		repo, err := leveldbp.Open(cfg.Path)
		if err != nil {
			return nil, nil, noop, err
		}
		health["database"] = repo
		return repo, repo.Failures(), repo, nil
	}

	full := &config.Config{Database: cfg}
	var (
		db  *sql.DB
		err error
	)
	if cfg.Driver == "mysql" {
		db, err = mysqlp.Connect(ctx, full.MySQLDSN())
	} else {
		db, err = postgresp.Connect(ctx, full.PostgresDSN())
	}
	if err != nil {
		return nil, nil, noop, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}
	health["database"] = &middleware.DatabaseHealthChecker{DB: db}

	var (
		repo     domain.Repository
		failures domain.FailureLog
	)
	if cfg.Driver == "mysql" {
		repo, failures = mysqlp.NewAnalysisRepository(db), mysqlp.NewFailureRepository(db)
	} else {
		repo, failures = postgresp.NewAnalysisRepository(db), postgresp.NewFailureRepository(db)
	}
	for _, m := range []any{repo, failures} {
		if err := m.(migrator).Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, noop, fmt.Errorf("%s migrate: %w", cfg.Driver, err)
		}
	}
	return repo, failures, db, nil
}

// modelsReady fails while a warmed-up registry has an adapter that is not
// loaded, and whenever one has failed for good.
func modelsReady(reg domain.Registry, warmup bool) error {
	for st, s := range models.States(reg) {
		if s == models.StateFailed || (warmup && s != models.StateLoaded) {
			return fmt.Errorf("model %s is %s", st, s)
		}
	}
	return nil
}
