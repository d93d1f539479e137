package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aiinspire/config"
	"aiinspire/database"
	"aiinspire/handlers"
	"aiinspire/jobs"
	"aiinspire/logger"
	"aiinspire/middleware"
	"aiinspire/push"
	"aiinspire/routes"
	"aiinspire/upload"
	"aiinspire/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting aiinspire", zap.String("env", cfg.Env), zap.String("addr", cfg.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			log.Warn("mongo disconnect", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		return err
	}
	log.Info("migrations applied")

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := websocket.NewManager(log.Named("ws"))
	notifier := push.NewNotifier(db, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject, log.Named("push"))
	if !notifier.Enabled() {
		log.Warn("VAPID keys not set, web push disabled; run `aiinspirectl vapid` to create a pair")
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	h := &handlers.Handler{
		Store:  db,
		Tokens: middleware.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL},
		Log:    log,
		Hub:    hub,
		Push:   notifier,
		Uploads: &upload.Resolver{
			Settings:      db,
			UploadDir:     cfg.UploadDir,
			PublicBaseURL: cfg.PublicBaseURL,
			CloudinaryURL: cfg.CloudinaryURL,
		},
	}

	router := routes.SetupRouter(h, routes.Options{
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
		Limiter:     limiter,
		Hub:         hub,
	})

	scheduler, err := jobs.Start(cfg.MembershipSweepSpec, db, limiter, log.Named("jobs"))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return err
	}

	<-scheduler.Stop().Done()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
