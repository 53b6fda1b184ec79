package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"form-service/internal/config"
	"form-service/internal/handler"
	"form-service/internal/repository/file"
	"form-service/internal/service"
	"form-service/internal/util"
	"form-service/internal/validation"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.LoadConfig()

	logger := util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	recordStore := file.NewRecordStore()
	rateLimits := file.NewRateLimitStore(recordStore, cfg.Storage.DataDir,
		cfg.RateLimit.MaxRequestsPerHour, cfg.RateLimit.Window)
	submissions := file.NewSubmissionStore(recordStore, cfg.Storage.DataDir)

	formValidator, err := validation.New(cfg.Form.MaxNameLength, cfg.Form.MaxCompanyLength, cfg.Form.MaxPhoneLength)
	if err != nil {
		util.Fatal("Failed to build form validator", util.ErrorField(err))
	}

	submissionService := service.NewSubmissionService(rateLimits, submissions, formValidator, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	router := handler.NewRouter(submissionHandler, logger, cfg.CORS.AllowedOrigins)

	util.Info("Loaded persisted state",
		util.String("data_dir", cfg.Storage.DataDir),
		util.Int("submissions", submissions.Count()),
	)

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		util.Info("Server started successfully",
			util.String("environment", cfg.Environment),
			util.String("address", server.Addr),
			util.Int("max_requests_per_hour", cfg.RateLimit.MaxRequestsPerHour),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		select {
		case sig := <-signalChan:
			util.Info("Received shutdown signal", util.String("signal", sig.String()))
		case <-ctx.Done():
			// Server failed; nothing left to shut down gracefully
			return nil
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			util.Error("Failed to shutdown server gracefully", util.ErrorField(err))
			return err
		}
		util.Info("Server shutdown completed")
		return nil
	})

	if err := group.Wait(); err != nil {
		util.Fatal("Server exited with error", util.ErrorField(err))
	}
}
