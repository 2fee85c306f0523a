package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "loanledger/internal/adapter/http"
	idemp "loanledger/internal/adapter/middleware"
	"loanledger/internal/adapter/notify"
	"loanledger/internal/adapter/repository/kv"
	"loanledger/internal/config"
	"loanledger/internal/infrastructure/cache"
	"loanledger/internal/infrastructure/logging"
	"loanledger/internal/infrastructure/storage"
	alertuc "loanledger/internal/usecase/alert"
	"loanledger/internal/usecase/importing"
	loanuc "loanledger/internal/usecase/loan"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	backend, err := storage.Open(cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() { _ = backend.Close() }()

	loans := kv.NewLoanRepository(backend.Store)
	tx := kv.NewLedgerUoW(loans)
	routes := httpadp.Routes{
		Health:  httpadp.NewHandler(backend.Ping),
		Loans:   httpadp.NewLoanHandler(loanuc.NewUsecase(tx, log)),
		Imports: httpadp.NewImportHandler(importing.NewUsecase(tx, log)),
		Alerts: httpadp.NewAlertHandler(alertuc.NewUsecase(tx, kv.NewAlertRepository(backend.Store),
			notify.NewLogNotifier(log), log)),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), middleware.BodyLimit("16M"), requestLogger(log))

	var mw []echo.MiddlewareFunc
	if cfg.IdempTTLSecs > 0 {
		rdb := cache.MustOpenRedis(cfg.RedisAddr, cfg.RedisDB, log)
		defer func() { _ = rdb.Close() }()
		mw = append(mw, idemp.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log))
	}
	httpadp.Register(e, routes, mw...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	log = log.Named("http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("owner_id", c.Request().Header.Get(idemp.HeaderOwnerID)),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
