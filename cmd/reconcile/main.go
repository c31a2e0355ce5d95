// Command reconcile runs one invoice through the reconciliation pipeline
// and prints the result as JSON. Exit code 0 means the engine produced a
// terminal business outcome (selected, ambiguous or no match); any
// infrastructure or verification failure exits non-zero.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/invopost/reconciler/internal/adapters/erp"
	"github.com/invopost/reconciler/internal/application/service"
	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
	"github.com/invopost/reconciler/internal/domain/model"
	"github.com/invopost/reconciler/internal/domain/reconciler"
	"github.com/invopost/reconciler/internal/domain/similarity"
	"github.com/invopost/reconciler/internal/infrastructure/config"
	"github.com/invopost/reconciler/internal/infrastructure/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	invoicePath := flag.String("invoice", "", "path to structured invoice JSON")
	supplierID := flag.String("supplier", "", "supplier id in the ERP")
	strategyFlag := flag.String("strategy", "", "goods-receipt strategy: exact or weighted (default from config)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	if *invoicePath == "" || *supplierID == "" {
		fmt.Fprintln(os.Stderr, "usage: reconcile -invoice invoice.json -supplier 0001000123 [-strategy exact|weighted]")
		os.Exit(2)
	}

	cfg := config.LoadOrEnv(*configPath)
	logger := logging.NewSystemLogger(cfg.Observability.Logging.Level, "reconcile")

	data, err := os.ReadFile(*invoicePath)
	if err != nil {
		logger.Error("cannot read invoice", "error", err)
		os.Exit(1)
	}
	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		logger.Error("cannot parse invoice", "error", err)
		os.Exit(1)
	}

	var comparer similarity.Comparer = similarity.NewFuzzy()
	if cfg.OpenAI.APIKey != "" {
		comparer = similarity.NewSemantic(cfg.OpenAI.APIKey, cfg.OpenAI.Model, nil, logger)
	}

	engine := reconciler.NewEngine(cfg.EngineRules(), comparer, logger)
	grRules := cfg.GoodsReceiptRules()
	verifier := goodsreceipt.NewVerifier(grRules, logger)
	gateway := erp.NewClient(cfg.ERPClientConfig(), logger)
	svc := service.NewReconcileService(engine, verifier, gateway, grRules.MovementType, logger)

	strategy := cfg.Strategy()
	if *strategyFlag != "" {
		strategy = goodsreceipt.Strategy(*strategyFlag)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.Process(ctx, inv, *supplierID, strategy)
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("cannot encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if err := reconciler.ResultError(result); err != nil {
		logger.Warn("manual intervention required", "reason", err.Error())
	}
}
