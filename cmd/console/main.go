package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletconsole/internal/approval"
	"walletconsole/internal/config"
	cronrunner "walletconsole/internal/cron"
	"walletconsole/internal/handler"
	"walletconsole/internal/logger"
	"walletconsole/internal/models"
	"walletconsole/internal/service"
	"walletconsole/internal/stream"
	"walletconsole/internal/walletapi"

	"github.com/shopspring/decimal"
)

func main() {
	cfgPath := os.Getenv("WC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("WC_ENV_ONLY"); envOnlyRaw != "" {
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

	walletHTTP := &http.Client{Timeout: cfg.Wallet.Timeout}
	wallet := walletapi.NewClient(walletHTTP, cfg.Wallet.BaseURL)

	hub := stream.NewHub(log)

	approvals := &approval.Controller{
		Gateway: wallet,
		Defaults: approval.Defaults{
			AssetFrom:      cfg.Approval.AssetFrom,
			AssetTo:        cfg.Approval.AssetTo,
			SlippageBps:    cfg.Approval.SlippageBps,
			GasEstimateUSD: decimal.NewFromFloat(cfg.Approval.GasEstimateUSD),
		},
		Logger: log,
		OnRecorded: func(dec models.Decision) {
			hub.Publish(stream.EventDecisionRecorded, dec)
		},
		OnTransition: func(snap approval.Snapshot) {
			hub.Publish(stream.EventApprovalState, snap)
		},
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{Wallet: wallet}
	healthHandler.Register(engine)
	walletHandler := &handler.WalletHandler{Wallet: wallet}
	walletHandler.Register(engine)
	approvalHandler := &handler.ApprovalHandler{Approvals: approvals}
	approvalHandler.Register(engine)
	streamHandler := &handler.StreamHandler{Hub: hub, Logger: log}
	streamHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Feed.Enabled {
		feed := &service.Feed{
			Wallet:   wallet,
			Hub:      hub,
			Logger:   log,
			PageSize: cfg.Feed.PageSize,
		}
		if _, err := cronRunner.Add(cfg.Feed.Poll, func(ctx context.Context) {
			_ = feed.Poll(ctx)
		}); err != nil {
			log.Warn("cron register suggestion feed failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
