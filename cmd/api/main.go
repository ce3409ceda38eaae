package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/auth"
	"chapterhub.org/internal/config"
	"chapterhub.org/internal/grpcapi"
	"chapterhub.org/internal/httpapi"
	"chapterhub.org/internal/member"
	"chapterhub.org/internal/obs"
	"chapterhub.org/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// backend is what the access core and probes need from persistence.
type backend interface {
	member.Store
	member.ExpiryChecker
}

type alwaysReady struct{}

func (alwaysReady) Check(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := obs.SetupTracing(ctx, "chapterhub-api", cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	var (
		store backend
		ready httpapi.ReadyChecker = alwaysReady{}
	)
	if cfg.PGDSN != "" {
		pgStore, err := pg.Open(cfg.PGDSN, pg.WithExpiryGrace(cfg.MembershipGrace))
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store, ready = pgStore, pgStore
	} else {
		mem := member.NewInMemory(member.WithExpiryGrace(cfg.MembershipGrace))
		if cfg.DevSeed {
			if err := seedDemo(mem); err != nil {
				log.Fatalf("seed: %v", err)
			}
		}
		obs.Warn("no CHAPTERHUB_PG_DSN set; using in-memory store", map[string]any{"dev_seed": cfg.DevSeed})
		store = mem
	}

	verifier, err := auth.NewTokenVerifier(cfg.AuthSecret, auth.WithIssuer(cfg.AuthIssuer))
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	resolver, err := access.NewResolver(store, store)
	if err != nil {
		log.Fatalf("access: %v", err)
	}
	engine, err := access.NewEngine(resolver)
	if err != nil {
		log.Fatalf("access: %v", err)
	}
	roleGuard, err := access.NewRoleTypeGuard(store)
	if err != nil {
		log.Fatalf("access: %v", err)
	}

	deps := httpapi.Deps{
		Authenticator: verifier,
		Engine:        engine,
		RoleGuard:     roleGuard,
		Store:         store,
		Ready:         ready,
		Version:       version,
	}
	api, err := httpapi.New(deps,
		httpapi.WithRateLimit(cfg.RateBurst, cfg.RatePerSecond),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)
	if err != nil {
		log.Fatalf("httpapi: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		obs.Info("http listening", map[string]any{"addr": srv.Addr, "version": version})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stopGRPC := func() {}
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv, health := grpcapi.NewServer(verifier, engine)
		stopGRPC = func() {
			health.Shutdown()
			grpcSrv.GracefulStop()
		}
		go func() {
			obs.Info("grpc listening", map[string]any{"addr": cfg.GRPCAddr})
			if err := grpcSrv.Serve(lis); err != nil {
				obs.Error("grpc serve stopped", map[string]any{"error": err})
			}
		}()
	}

	<-ctx.Done()
	obs.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	stopGRPC()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		obs.Error("http shutdown", map[string]any{"error": err})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		obs.Error("tracing shutdown", map[string]any{"error": err})
	}
	obs.Info("stopped", nil)
}
