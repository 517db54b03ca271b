package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	httpadapter "github.com/plutusapp/plutus-backend/internal/adapter/http"
	"github.com/plutusapp/plutus-backend/internal/adapter/repository/postgres"
	"github.com/plutusapp/plutus-backend/internal/config"
	cronrunner "github.com/plutusapp/plutus-backend/internal/cron"
	"github.com/plutusapp/plutus-backend/internal/logger"
	"github.com/plutusapp/plutus-backend/internal/usecase/balance"
	"github.com/plutusapp/plutus-backend/internal/usecase/bondinterest"
	"github.com/plutusapp/plutus-backend/internal/usecase/gains"
	"github.com/plutusapp/plutus-backend/internal/usecase/networth"
	"github.com/plutusapp/plutus-backend/internal/usecase/performance"
	"github.com/plutusapp/plutus-backend/internal/usecase/projection"
	"github.com/plutusapp/plutus-backend/internal/usecase/snapshot"
	"github.com/plutusapp/plutus-backend/internal/usecase/valuation"
)

func main() {
	cfgPath := os.Getenv("PLUTUS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("PLUTUS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := postgres.NewDB(cfg.DB.ConnString())
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	walletRepo := postgres.NewWalletRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	creditCardRepo := postgres.NewCreditCardRepository(db)
	recurringRepo := postgres.NewRecurringRepository(db)
	tickerRepo := postgres.NewTickerRepository(db)
	bondRepo := postgres.NewBondRepository(db)
	priceRepo := postgres.NewPriceHistoryRepository(db)
	indicatorRepo := postgres.NewIndicatorRepository(db)
	bondInterestRepo := postgres.NewBondInterestRepository(db)
	netWorthSnapshotRepo := postgres.NewNetWorthSnapshotRepository(db)
	performanceSnapshotRepo := postgres.NewPerformanceSnapshotRepository(db)

	// Services
	valuationService := valuation.NewService(tickerRepo, bondRepo, priceRepo, log)
	projector := projection.NewService(recurringRepo)
	balanceService := balance.NewService(transactionRepo, creditCardRepo, projector, log)
	gainsService := gains.NewService(tickerRepo, bondRepo, priceRepo, bondInterestRepo, valuationService)
	bondInterestService := bondinterest.NewService(bondRepo, indicatorRepo, bondInterestRepo, log)
	netWorthSnapshots := snapshot.NewNetWorthService(netWorthSnapshotRepo)
	performanceSnapshots := snapshot.NewPerformanceService(performanceSnapshotRepo)
	netWorthService := networth.NewService(
		walletRepo,
		transactionRepo,
		creditCardRepo,
		balanceService,
		valuationService,
		projector,
		netWorthSnapshots,
		log,
		cfg.Engine.FutureHorizonMonths,
	)
	performanceService := performance.NewService(gainsService, performanceSnapshots, log, cfg.Engine.WindowMonths)

	// HTTP server
	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpadapter.RequestLogMiddleware(log))
	engine.Use(httpadapter.AuthMiddleware(cfg.Server.APIToken))

	handler := httpadapter.NewHandler(db, netWorthService, performanceService, log)
	handler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cron jobs: keep the bond interest ledger current and warm the
	// snapshot caches without waiting for a user-triggered rebuild
	cronRunner := cronrunner.New(log, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add(cfg.Cron.BondInterestSync, func(ctx context.Context) {
			if err := bondInterestService.SyncAll(ctx); err != nil {
				log.Warn("cron bond interest sync failed", zap.Error(err))
				return
			}
			log.Info("cron bond interest sync ok")
		})
		if err != nil {
			log.Fatal("failed to schedule bond interest sync", zap.Error(err))
		}

		_, err = cronRunner.Add(cfg.Cron.SnapshotWarmup, func(ctx context.Context) {
			if _, err := performanceService.GetPerformanceData(ctx); err != nil {
				log.Warn("cron performance warmup failed", zap.Error(err))
			}

			hasAny, err := netWorthSnapshots.HasAny(ctx)
			if err != nil {
				log.Warn("cron net worth warmup probe failed", zap.Error(err))
				return
			}
			if !hasAny {
				if err := <-netWorthService.RecalculateAllSnapshots(ctx); err != nil {
					log.Warn("cron net worth warmup rebuild failed", zap.Error(err))
				}
			}
		})
		if err != nil {
			log.Fatal("failed to schedule snapshot warmup", zap.Error(err))
		}

		cronRunner.Start()
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if cfg.Cron.Enabled {
		cronRunner.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}

	log.Info("stopped")
}
