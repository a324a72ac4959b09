package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/logger"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
	"storefront_back_end/internal/utils"
)

func main() {
	cfg, loaded := config.Load()

	zlog, err := logger.New(cfg.Development())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	if !loaded {
		zlog.Debug("no .env file, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	conns, err := database.Connect(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer conns.Close()

	productCache := cache.New(conns.Redis, cfg.CacheTTL, zlog.Named("cache"))
	index := services.NewProductIndex(conns.Elastic, cfg.ElasticIndex, zlog.Named("search"))
	st := store.New(conns.SQL, store.Options{
		Logger: zlog.Named("store"),
		Cache:  productCache,
		Index:  index,
	})

	auditor, reader, err := newAuditor(ctx, cfg, conns, zlog)
	if err != nil {
		return err
	}

	verifier, err := newVerifier(ctx, cfg, zlog)
	if err != nil {
		return err
	}

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(zlog.Named("http")), middleware.RequestLogger(zlog.Named("http")))
	routes.RegisterRoutes(r, routes.Deps{
		Store:             st,
		Cache:             productCache,
		Verifier:          verifier,
		Auditor:           auditor,
		AuditReader:       reader,
		Log:               zlog.Named("api"),
		CORSOrigins:       cfg.CORSOrigins,
		CheckoutRateLimit: cfg.CheckoutRateLimit,
		RateLimitWindow:   cfg.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zlog.Info("storefront API listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAuditor prefers the ScyllaDB audit table and falls back to the application log.
func newAuditor(ctx context.Context, cfg config.Config, conns *database.Connections, zlog *zap.Logger) (utils.Auditor, utils.AuditReader, error) {
	if conns.Scylla == nil {
		return utils.NewLogAuditor(zlog), nil, nil
	}
	session, err := conns.Scylla.GetSession(cfg.ScyllaKeyspace)
	if err != nil {
		return nil, nil, err
	}
	a := utils.NewScyllaAuditor(session)
	if err := a.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	return a, a, nil
}

// newVerifier accepts locally signed tokens and, when configured, ID tokens from the OIDC issuer.
func newVerifier(ctx context.Context, cfg config.Config, zlog *zap.Logger) (middleware.TokenVerifier, error) {
	var chain middleware.Verifiers
	if cfg.OIDCIssuer != "" {
		v, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
		zlog.Info("OIDC verification enabled", zap.String("issuer", cfg.OIDCIssuer))
	}
	if cfg.JWTSecret != "" {
		chain = append(chain, middleware.NewHMACVerifier(cfg.JWTSecret))
	}
	if len(chain) == 0 {
		return nil, errors.New("neither JWT_SECRET nor OIDC_ISSUER is set")
	}
	return chain, nil
}
