package app

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"metro/internal/handler"
	"metro/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	NetworkHandler *handler.NetworkHandler
	WalletHandler  *handler.WalletHandler
	TicketHandler  *handler.TicketHandler
	ScannerHandler *handler.ScannerHandler
	RedisClient    *redis.Client // nil disables idempotency replay
	NewRelicApp    *newrelic.Application
	Logger         *slog.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Network routes.
		v1.GET("/stations", deps.NetworkHandler.ListStations)
		v1.GET("/lines", deps.NetworkHandler.ListLines)
		v1.GET("/routes", deps.NetworkHandler.QuoteRoute)

		// Administration routes.
		admin := v1.Group("/admin", middleware.RequireActor())
		{
			admin.POST("/stations", deps.NetworkHandler.CreateStation)
			admin.POST("/lines", deps.NetworkHandler.CreateLine)
			admin.PATCH("/lines/:id", deps.NetworkHandler.UpdateLine)
			admin.POST("/connections", deps.NetworkHandler.CreateConnection)
		}

		// Wallet routes.
		wallet := v1.Group("/wallet", middleware.RequirePassenger())
		{
			wallet.GET("", deps.WalletHandler.GetWallet)
			wallet.GET("/transactions", deps.WalletHandler.ListTransactions)
			wallet.POST("/topup", deps.WalletHandler.TopUp)
		}

		// Ticket routes.
		tickets := v1.Group("/tickets", middleware.RequirePassenger())
		{
			tickets.POST("", deps.TicketHandler.PurchaseTicket)
			tickets.GET("", deps.TicketHandler.ListTickets)
			tickets.GET("/:id", deps.TicketHandler.GetTicket)
		}

		// Gate and counter routes.
		scanner := v1.Group("/scanner", middleware.RequireActor())
		{
			scanner.POST("/scans", deps.ScannerHandler.Scan)
			scanner.POST("/offline-tickets", deps.ScannerHandler.OfflineSale)
			scanner.GET("/tickets/:id/scans", deps.ScannerHandler.ListScans)
		}
	}

	return router
}
