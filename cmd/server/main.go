package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/visionize/internal/api"
	"github.com/vytor/visionize/internal/config"
	"github.com/vytor/visionize/internal/content"
	"github.com/vytor/visionize/internal/db"
	"github.com/vytor/visionize/internal/jobs"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/notify"
	"github.com/vytor/visionize/internal/repository/sqlite"
	"github.com/vytor/visionize/internal/services"
	"github.com/vytor/visionize/internal/session"
	"github.com/vytor/visionize/internal/sse"
	"github.com/vytor/visionize/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Visionize Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("tick_interval=%s", cfg.TickInterval)
	log.Debug("session_idle_timeout=%s", cfg.SessionIdleTimeout)
	log.Debug("correct_feedback_delay=%s", cfg.CorrectFeedbackDelay)
	log.Debug("wrong_feedback_delay=%s", cfg.WrongFeedbackDelay)
	log.Debug("focus_switch_seconds=%d", cfg.FocusSwitchSeconds)
	log.Debug("activity_worker_count=%d", cfg.ActivityWorkerCount)
	log.Debug("activity_queue_size=%d", cfg.ActivityQueueSize)
	log.Debug("activity_batch_size=%d", cfg.ActivityBatchSize)
	log.Debug("activity_flush_interval=%s", cfg.ActivityFlushEvery)
	log.Debug("record_tones=%t", cfg.RecordTones)

	provider, err := content.Load()
	if err != nil {
		log.Error("failed to load tutorial content: %v", err)
		os.Exit(1)
	}

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	activityRepo := sqlite.NewActivityRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)

	// Sessions live in memory, so nothing left open by a previous run can resume.
	if n, err := sessionRepo.CloseAllOpen(context.Background(), time.Now(), "restart"); err != nil {
		log.Warn("failed to close stale sessions: %v", err)
	} else if n > 0 {
		log.Info("closed %d sessions left open by a previous run", n)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize worker pool
	activityPool := worker.NewPool(cfg.ActivityWorkerCount, cfg.ActivityQueueSize)
	activityPool.Start(ctx)

	var recorderOpts []services.RecorderOption
	if !cfg.RecordTones {
		recorderOpts = append(recorderOpts, services.WithoutTones())
	}
	activityQueue := jobs.NewWorkerQueue(activityPool, activityRepo, sessionRepo,
		jobs.WithBatchSize(cfg.ActivityBatchSize),
		jobs.WithFlushInterval(cfg.ActivityFlushEvery),
	)
	recorder := services.NewRecorder(activityQueue, recorderOpts...)
	hub := sse.NewHub(log)

	manager := session.NewManager(provider, session.ManagerConfig{
		TickInterval:  cfg.TickInterval,
		IdleTimeout:   cfg.SessionIdleTimeout,
		SwitchSeconds: cfg.FocusSwitchSeconds,
		CorrectDelay:  cfg.CorrectFeedbackDelay,
		WrongDelay:    cfg.WrongFeedbackDelay,
	},
		session.WithNotifier(notify.Log{Logger: log.WithPrefix("tones")}),
		session.WithHooks(session.Hooks{
			OnChange:   hub.PublishState,
			OnActivity: recorder.Record,
			OnClose: func(s *session.Session, reason session.CloseReason) {
				hub.CloseChannel(s.ID())
				recorder.SessionClosed(s, reason)
			},
		}),
	)

	clockDone := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(clockDone)
	}()

	// Initialize services
	srv := &api.Server{
		DB:       database,
		Content:  provider,
		Tutorial: services.NewTutorialService(manager, sessionRepo),
		History:  services.NewHistoryService(activityRepo, sessionRepo),
		Hub:      hub,
	}

	// Configure HTTP server. No WriteTimeout: event streams stay open.
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stopping the clock closes every session, which ends their event
	// streams and queues their close stamps.
	log.Debug("stopping session clock")
	cancel()
	<-clockDone

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Wait for queued activity writes
	log.Debug("flushing buffered activities")
	recorder.Flush()
	log.Debug("stopping activity pool")
	activityPool.Stop()

	log.Info("===========================================")
	log.Info("Visionize Server Stopped")
	log.Info("===========================================")
}
