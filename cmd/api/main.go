package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"svodka.org/internal/auth"
	"svodka.org/internal/config"
	"svodka.org/internal/httpapi"
	"svodka.org/internal/obs"
	"svodka.org/internal/report"
	"svodka.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SVODKA_COMMIT"))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()
	if err := auth.EnsureUser(bootCtx, store, auth.BootstrapUser{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Admin:    true,
	}); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	users, err := auth.NewService(store)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	reports, err := report.NewService(store)
	if err != nil {
		log.Fatalf("report service: %v", err)
	}
	tokens, err := auth.NewTokens(cfg.JWTSecret, auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: store.DB()}, version, users, reports, tokens)
	api.SetRateLimit(cfg.RateRPS, cfg.RateBurst)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting svodka-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
