// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"trafficdesk/internal/config"
	httptransport "trafficdesk/internal/http"
	"trafficdesk/internal/infra"
	"trafficdesk/internal/mailer"
	"trafficdesk/internal/maps"
	"trafficdesk/internal/modules/audit"
	"trafficdesk/internal/modules/directory"
	"trafficdesk/internal/modules/fees"
	"trafficdesk/internal/modules/fieldstatus"
	"trafficdesk/internal/modules/job"
	"trafficdesk/internal/modules/notify"
	"trafficdesk/internal/modules/timelock"
)

func main() {
	config.LoadDotEnv(6)

	logger, _ := zap.NewProduction()
	if os.Getenv("APP_ENV") == "local" {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		logger.Fatal("TD_FIREBASE_PROJECT_ID is required")
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		logger.Fatal("firebase init failed", zap.Error(err))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db init failed", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	jobStore := job.NewStore(dbPool)
	auditStore := audit.NewStore(dbPool)
	feeStore := fees.NewStore(dbPool)
	dirStore := directory.NewStore(dbPool)
	notifyStore := notify.NewStore(dbPool)
	positions := audit.NewPositionStore(redisClient)

	var estimator notify.TravelEstimator
	if cfg.Maps.APIKey != "" {
		routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			logger.Fatal("maps init failed", zap.Error(err))
		}
		estimator = routeService
	}

	var outbound notify.Mailer
	if cfg.Mail.GatewayURL != "" {
		outbound = mailer.NewGatewayClient(cfg.Mail.GatewayURL, cfg.Mail.Token, cfg.Mail.Sender)
	}

	notifySvc := notify.NewService(notifyStore, dirStore, outbound, estimator, cfg.Mail.Departments, logger)
	jobSvc := job.NewService(dbPool, jobStore, feeStore, auditStore, dirStore, notifySvc)
	gate := timelock.NewGate(cfg.Lock.Window)
	fieldSvc := fieldstatus.NewService(dbPool, jobStore, auditStore, feeStore, dirStore, gate, positions, logger)

	handler := httptransport.NewRouter(jobSvc, fieldSvc, notifyStore, verifier, logger)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
