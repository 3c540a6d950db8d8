package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/market-data-service/internal/config"
	"github.com/yourorg/market-data-service/internal/handler"
	"github.com/yourorg/market-data-service/internal/middleware"
	"github.com/yourorg/market-data-service/internal/model"
	"github.com/yourorg/market-data-service/internal/registry"
	"github.com/yourorg/market-data-service/internal/service"
	"github.com/yourorg/market-data-service/internal/upstream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Shared upstream HTTP client with connect/total timeouts
	httpClient := upstream.NewClient(cfg.Upstream.ConnectTimeout, cfg.Upstream.RequestTimeout, logger)

	// Symbol registry with background refresh
	endpoints := upstream.DefaultEndpoints()
	reg := registry.New()
	symbolSource := upstream.NewSymbolScriptClient(endpoints, httpClient, logger)
	refresher := registry.NewRefresher(
		reg,
		symbolSource,
		cfg.Registry.RefreshInterval,
		cfg.Registry.StaleAfter,
		logger,
	)

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	go refresher.Run(refreshCtx)

	// Initialize services
	futuresService := service.NewFuturesService(
		reg,
		refresher,
		httpClient,
		endpoints,
		cfg.Upstream.MaxBatchSize,
		cfg.Upstream.MaxConcurrent,
		logger,
	)
	stockService := service.NewStockService(httpClient, endpoints, logger)

	// Initialize handlers
	futuresHandler := handler.NewFuturesHandler(futuresService, logger)
	stockHandler := handler.NewStockHandler(stockService, logger)

	// Set up HTTP server with Gin
	router := setupRouter(futuresHandler, stockHandler, cfg.Auth.APIKey, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopRefresh()

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func setupRouter(
	futuresHandler *handler.FuturesHandler,
	stockHandler *handler.StockHandler,
	apiKey string,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.OK(gin.H{"status": "healthy"}))
	})

	auth := middleware.AuthMiddleware(apiKey, logger)

	// Futures routes
	futures := router.Group("/futures")
	{
		futures.Use(auth)
		futures.GET("", futuresHandler.ListFutures)
		futures.GET("/exchanges", futuresHandler.GetExchanges)
		futures.GET("/symbols", futuresHandler.GetSymbols)
		futures.GET("/symbols/:exchange", futuresHandler.GetSymbols)
		futures.POST("/batch", futuresHandler.BatchQuotes)
		futures.GET("/realtime/:symbol", futuresHandler.GetRealtimeByProduct)

		futures.GET("/main/display", futuresHandler.GetDisplayMainContracts)
		futures.GET("/main/:symbol", futuresHandler.GetMainContracts)
		futures.GET("/main/:symbol/daily", futuresHandler.GetMainDaily)

		futures.GET("/hold_pos", futuresHandler.GetHoldPos)
		futures.GET("/fees", futuresHandler.GetFees)
		futures.GET("/comm_info", futuresHandler.GetCommInfo)
		futures.GET("/rule", futuresHandler.GetRule)
		futures.GET("/inventory99", futuresHandler.GetInventory)
		futures.GET("/inventory99/symbols", futuresHandler.GetInventorySymbols)
		futures.GET("/spot_price", futuresHandler.GetSpotPrice)
		futures.GET("/spot_price_previous", futuresHandler.GetSpotPriceSummary)
		futures.GET("/spot_price_daily", futuresHandler.GetSpotPriceDaily)

		foreign := futures.Group("/foreign")
		{
			foreign.GET("/symbols", futuresHandler.GetForeignSymbols)
			foreign.POST("/realtime", futuresHandler.ForeignRealtime)
			foreign.GET("/:symbol/history", futuresHandler.GetForeignHistory)
			foreign.GET("/:symbol/detail", futuresHandler.GetForeignDetail)
		}

		futures.GET("/:symbol", futuresHandler.GetQuote)
		futures.GET("/:symbol/detail", futuresHandler.GetContractDetail)
		futures.GET("/:symbol/history", futuresHandler.GetHistory)
		futures.GET("/:symbol/minute", futuresHandler.GetMinute)
	}

	// Stock routes
	stocks := router.Group("/stocks")
	{
		stocks.Use(auth)
		stocks.GET("", stockHandler.ListStocks)
		stocks.GET("/:symbol", stockHandler.GetQuote)
		stocks.GET("/:symbol/history", stockHandler.GetHistory)
	}

	return router
}
