package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/zyrticx/tradesmart-api/internal/accounts"
	"github.com/zyrticx/tradesmart-api/internal/auth"
	"github.com/zyrticx/tradesmart-api/internal/config"
	"github.com/zyrticx/tradesmart-api/internal/database"
	"github.com/zyrticx/tradesmart-api/internal/journal"
	"github.com/zyrticx/tradesmart-api/internal/learning"
	"github.com/zyrticx/tradesmart-api/internal/storage"
	"github.com/zyrticx/tradesmart-api/internal/trading"
	"github.com/zyrticx/tradesmart-api/internal/watchlist"
	"github.com/zyrticx/tradesmart-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the journal API server with graceful shutdown
// support. It loads configuration, opens the database, wires all services
// and routes, and starts the background ledger reconciler.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(db, cfg.JWTSecret, cfg.TokenLifetime)
	authHandlers := auth.NewGinHandlers(authService)

	accountService := accounts.NewService(db)
	accountHandlers := accounts.NewGinHandlers(accountService)

	tradingService := trading.NewService(db)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	journalService := journal.NewService(db)
	journalHandlers := journal.NewGinHandlers(journalService)

	watchlistService := watchlist.NewService(db)
	watchlistHandlers := watchlist.NewGinHandlers(watchlistService)

	learningService := learning.NewService(db)
	learningHandlers := learning.NewGinHandlers(learningService)

	store, err := storage.NewStore(cfg.StorageDir, cfg.StorageSigningKey, cfg.SignedURLTTL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize attachment storage")
	}
	storageHandlers := storage.NewGinHandlers(store)

	// Create and start the background ledger reconciler
	reconciler := trading.NewReconciler(trading.NewDatabase(db))
	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()

	go reconciler.Start(reconcilerCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, authService, authHandlers, accountHandlers, tradingHandlers,
		journalHandlers, watchlistHandlers, learningHandlers, storageHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for sign-up and sign-in
// - Everything else: Protected by JWT authentication
func setupRoutes(
	router *gin.Engine,
	authService *auth.Service,
	authHandlers *auth.GinHandlers,
	accountHandlers *accounts.GinHandlers,
	tradingHandlers *trading.GinHandlers,
	journalHandlers *journal.GinHandlers,
	watchlistHandlers *watchlist.GinHandlers,
	learningHandlers *learning.GinHandlers,
	storageHandlers *storage.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandlers.SignUpHandler())
			authGroup.POST("/signin", authHandlers.SignInHandler())

			session := authGroup.Group("")
			session.Use(middleware.JWTAuth(authService))
			{
				session.POST("/signout", authHandlers.SignOutHandler())
				session.GET("/me", authHandlers.MeHandler())
			}
		}

		// Attachment downloads carry their own signature, no JWT required
		v1.GET("/attachments/:name", storageHandlers.ServeHandler())

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(authService))
		{
			accountsGroup := protected.Group("/accounts")
			{
				accountsGroup.POST("", accountHandlers.CreateAccountHandler())
				accountsGroup.GET("", accountHandlers.ListAccountsHandler())
				accountsGroup.GET("/:account_id", accountHandlers.GetAccountHandler())
				accountsGroup.PUT("/:account_id", accountHandlers.UpdateAccountHandler())
				accountsGroup.DELETE("/:account_id", accountHandlers.DeleteAccountHandler())
			}

			preferences := protected.Group("/preferences")
			{
				preferences.GET("/:key", accountHandlers.GetPreferenceHandler())
				preferences.PUT("/:key", accountHandlers.PutPreferenceHandler())
			}

			trades := protected.Group("/trades")
			{
				trades.POST("", tradingHandlers.CreateTradeHandler())
				trades.GET("", tradingHandlers.ListTradesHandler())
				trades.GET("/:trade_id", tradingHandlers.GetTradeHandler())
				trades.PUT("/:trade_id", tradingHandlers.UpdateTradeHandler())
				trades.DELETE("/:trade_id", tradingHandlers.DeleteTradeHandler())

				trades.POST("/:trade_id/events", tradingHandlers.AddEventHandler())
				trades.GET("/:trade_id/events", tradingHandlers.ListEventsHandler())
				trades.PUT("/:trade_id/events/:event_id", tradingHandlers.UpdateEventHandler())
				trades.DELETE("/:trade_id/events/:event_id", tradingHandlers.DeleteEventHandler())
			}

			journalGroup := protected.Group("/journal")
			{
				journalGroup.POST("", journalHandlers.CreateHandler())
				journalGroup.GET("", journalHandlers.ListHandler())
				journalGroup.PUT("/:entry_id", journalHandlers.UpdateHandler())
				journalGroup.DELETE("/:entry_id", journalHandlers.DeleteHandler())
			}

			watchlistGroup := protected.Group("/watchlist")
			{
				watchlistGroup.POST("", watchlistHandlers.CreateHandler())
				watchlistGroup.GET("", watchlistHandlers.ListHandler())
				watchlistGroup.PUT("/:note_id", watchlistHandlers.UpdateHandler())
				watchlistGroup.DELETE("/:note_id", watchlistHandlers.DeleteHandler())
			}

			learningGroup := protected.Group("/learning")
			{
				learningGroup.POST("", learningHandlers.CreateHandler())
				learningGroup.GET("", learningHandlers.ListHandler())
				learningGroup.PUT("/:material_id", learningHandlers.UpdateHandler())
				learningGroup.DELETE("/:material_id", learningHandlers.DeleteHandler())
			}

			attachments := protected.Group("/attachments")
			{
				attachments.POST("", storageHandlers.UploadHandler())
				attachments.GET("/:name/sign", storageHandlers.SignHandler())
			}
		}
	}
}
