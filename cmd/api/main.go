// Command api runs the HTTP reconciliation server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invopost/reconciler/internal/adapters/erp"
	"github.com/invopost/reconciler/internal/api"
	"github.com/invopost/reconciler/internal/application/service"
	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
	"github.com/invopost/reconciler/internal/domain/reconciler"
	"github.com/invopost/reconciler/internal/domain/similarity"
	"github.com/invopost/reconciler/internal/infrastructure/config"
	"github.com/invopost/reconciler/internal/infrastructure/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg := config.LoadOrEnv(*configPath)
	logger := logging.NewSystemLogger(cfg.Observability.Logging.Level, "api")

	var comparer similarity.Comparer = similarity.NewFuzzy()
	if cfg.OpenAI.APIKey != "" {
		comparer = similarity.NewSemantic(cfg.OpenAI.APIKey, cfg.OpenAI.Model, nil, logger)
		logger.Info("semantic similarity enabled", "model", cfg.OpenAI.Model)
	}

	engine := reconciler.NewEngine(cfg.EngineRules(), comparer, logger)
	grRules := cfg.GoodsReceiptRules()
	verifier := goodsreceipt.NewVerifier(grRules, logger)
	gateway := erp.NewClient(cfg.ERPClientConfig(), logger)
	svc := service.NewReconcileService(engine, verifier, gateway, grRules.MovementType, logger)

	serverCfg := api.DefaultConfig()
	if cfg.Server.Port > 0 {
		serverCfg.Port = cfg.Server.Port
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
	}
	serverCfg.DefaultStrategy = cfg.Strategy()

	server := api.NewServer(serverCfg, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
