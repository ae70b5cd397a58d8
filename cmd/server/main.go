package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/config"
	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/domain/models"
	"github.com/piggerypro/piggery/internal/metrics"
	"github.com/piggerypro/piggery/internal/repository/mongodb"
	"github.com/piggerypro/piggery/internal/repository/sqlite"
	"github.com/piggerypro/piggery/internal/scheduler"
	"github.com/piggerypro/piggery/internal/server/handlers"
	"github.com/piggerypro/piggery/internal/server/router"
	ledgersvc "github.com/piggerypro/piggery/internal/service/ledger"
	reportingsvc "github.com/piggerypro/piggery/internal/service/reporting"
	syncsvc "github.com/piggerypro/piggery/internal/service/sync"
	"github.com/piggerypro/piggery/pkg/clients/googledrive"
	"github.com/piggerypro/piggery/pkg/clients/identity"
	"github.com/piggerypro/piggery/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	metrics.Register()

	localRepo, err := sqlite.NewSlotRepository(cfg.Storage.DBPath)
	if err != nil {
		baseLogger.Fatal("failed to init local storage", zap.Error(err))
	}
	defer func() {
		if err := localRepo.Close(); err != nil {
			baseLogger.Error("failed to close local storage", zap.Error(err))
		}
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Seed the credential slot from the environment on first run only; the
	// runtime value is owned by local storage.
	if cfg.Google.ClientID != "" {
		if stored, err := localRepo.LoadCredential(startupCtx); err == nil && stored == "" {
			if err := localRepo.SaveCredential(startupCtx, cfg.Google.ClientID); err != nil {
				baseLogger.Warn("failed to seed cloud credential", zap.Error(err))
			}
		}
	}

	initial, err := localRepo.LoadSnapshot(startupCtx)
	if err != nil {
		var formatErr *apperr.FormatError
		if !errors.As(err, &formatErr) {
			baseLogger.Fatal("failed to load local snapshot", zap.Error(err))
		}
		baseLogger.Warn("stored snapshot unreadable, starting empty", zap.Error(err))
		initial = models.EmptySnapshot()
	}

	ledgerSvc := ledgersvc.NewService(initial, localRepo, baseLogger.Named("svc.ledger"))

	var archive reportingsvc.Archive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
		baseLogger.Info("daily summary archive enabled")
	} else {
		baseLogger.Warn("mongodb uri missing, daily summary archive disabled")
	}

	reportingSvc := reportingsvc.NewService(ledgerSvc, archive, baseLogger.Named("svc.reporting"))

	newIdentity := func(clientID string) identity.Client {
		return identity.NewClient(identity.Config{
			ClientID:     clientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
	}
	newDrive := func(ctx context.Context, accessToken string) (googledrive.Client, error) {
		return googledrive.NewDriveClient(ctx, accessToken, googledrive.WellKnownFileName, baseLogger.Named("client.drive"))
	}
	syncSvc := syncsvc.NewService(localRepo, newIdentity, newDrive, baseLogger.Named("svc.sync"))

	if err := syncSvc.Ready(startupCtx); err != nil {
		// A placeholder credential is a normal first-run state; sync stays
		// disabled until one is configured through the API.
		baseLogger.Warn("cloud sync not ready", zap.Error(err))
	}

	recordsHandler := handlers.NewRecordsHandler(ledgerSvc, baseLogger.Named("handlers.records"))
	syncHandler := handlers.NewSyncHandler(syncSvc, ledgerSvc, baseLogger.Named("handlers.sync"))
	engine := router.New(recordsHandler, syncHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
