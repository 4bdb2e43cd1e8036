package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/enkitstudio/accountkit/internal/config"
	"github.com/enkitstudio/accountkit/internal/infra/logger"
	"github.com/enkitstudio/accountkit/internal/stub"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	addr := os.Getenv("STUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	secret := os.Getenv("STUB_SECRET")
	if secret == "" {
		secret = "dev-secret"
	}

	backend := stub.NewServer(secret, 15*time.Minute, log)
	backend.Seed(stub.User{
		Username:  "demo",
		Email:     "demo@example.com",
		Password:  "demo-password",
		FirstName: "Demo",
		LastName:  "User",
		Activated: true,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      backend.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("stub api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown stub api", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("stub api failed", zap.Error(err))
		}
	}
}
