// Package api exposes the reconciliation flow over HTTP.
//
// The server owns no reconciliation state; each request runs the stateless
// fetch → reconcile → verify pipeline against a fresh ERP snapshot.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/invopost/reconciler/internal/adapters/erp"
	"github.com/invopost/reconciler/internal/api/dto"
	"github.com/invopost/reconciler/internal/api/middleware"
	"github.com/invopost/reconciler/internal/application/service"
	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
)

// Config holds API server configuration.
type Config struct {
	Port            int
	AllowedOrigins  []string
	DefaultStrategy goodsreceipt.Strategy
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		AllowedOrigins:  []string{"http://localhost:3000"},
		DefaultStrategy: goodsreceipt.StrategyExact,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	svc        *service.ReconcileService
	logger     *slog.Logger
}

// NewServer creates a new API server around the reconcile service.
func NewServer(cfg Config, svc *service.ReconcileService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultStrategy == "" {
		cfg.DefaultStrategy = goodsreceipt.StrategyExact
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging(logger))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		}))
	}

	s := &Server{
		config: cfg,
		router: router,
		svc:    svc,
		logger: logger,
	}

	router.GET("/health", s.handleHealth)
	router.POST("/api/reconcile", s.handleReconcile)

	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.APIError{Kind: "bad_request", Error: err.Error()})
		return
	}

	strategy := s.config.DefaultStrategy
	switch goodsreceipt.Strategy(req.Strategy) {
	case goodsreceipt.StrategyExact, goodsreceipt.StrategyWeighted:
		strategy = goodsreceipt.Strategy(req.Strategy)
	case "":
	default:
		c.JSON(http.StatusBadRequest, dto.APIError{
			Kind:  "bad_request",
			Error: fmt.Sprintf("unknown strategy %q", req.Strategy),
		})
		return
	}

	result, err := s.svc.Process(c.Request.Context(), req.Invoice, req.SupplierID, strategy)
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, dto.APIError{Kind: kind, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ReconcileResponse{
		RequestID: c.GetString(middleware.RequestIDKey),
		Result:    result,
	})
}

// classify maps pipeline errors onto HTTP status codes. Gateway faults are
// retryable (502); goods-receipt failures are business rejections (422).
func classify(err error) (int, string) {
	var gw *erp.GatewayError
	if errors.As(err, &gw) {
		return http.StatusBadGateway, "gateway"
	}

	var noReceipt *goodsreceipt.NoReceiptError
	if errors.As(err, &noReceipt) {
		return http.StatusUnprocessableEntity, "no_goods_receipt"
	}
	var failed *goodsreceipt.VerificationFailedError
	if errors.As(err, &failed) {
		return http.StatusUnprocessableEntity, "goods_receipt_mismatch"
	}
	var insufficient *goodsreceipt.InsufficientError
	if errors.As(err, &insufficient) {
		return http.StatusUnprocessableEntity, "insufficient_goods_receipt"
	}

	return http.StatusInternalServerError, "internal"
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}
