package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shaadisync/backend/docs"
	"github.com/shaadisync/backend/internal/config"
	"github.com/shaadisync/backend/internal/database"
	"github.com/shaadisync/backend/internal/handlers"
	mW "github.com/shaadisync/backend/internal/middleware"
	"github.com/shaadisync/backend/internal/services"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title ShaadiSync Backend API
// @version 1.0
// @description API for the ShaadiSync wedding vendor marketplace
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("fees.unlock_fee_bps", "FEES_UNLOCK_FEE_BPS")
	viper.BindEnv("fees.activation_bps", "FEES_ACTIVATION_BPS")
	viper.BindEnv("fees.deactivation_bps", "FEES_DEACTIVATION_BPS")
	viper.BindEnv("unlock.contact_qr_ttl", "UNLOCK_CONTACT_QR_TTL")
	viper.BindEnv("unlock.max_retries", "UNLOCK_MAX_RETRIES")
	viper.BindEnv("payments.webhook_secret", "PAYMENTS_WEBHOOK_SECRET")

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "ShaadiSync Backend API"
	docs.SwaggerInfo.Description = "API for the ShaadiSync wedding vendor marketplace"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	fees := config.LoadFeeConfig()
	unlockCfg := config.LoadUnlockConfig()

	ledgerService := services.NewLedgerService(db, fees)
	unlockService := services.NewUnlockService(db, ledgerService, fees, unlockCfg)
	catalogService := services.NewCatalogService(db, ledgerService, fees)
	walletService := services.NewWalletService(db)
	paymentService := services.NewPaymentService(db, ledgerService)
	authService := services.NewAuthService(db, redisClient)
	artistService := services.NewArtistService(db)
	qrService := services.NewQRService(unlockService, redisClient, unlockCfg)
	qrHandler := handlers.NewQRHandler(qrService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for artist portfolio images
	r.Handle("/static/portfolio/*", http.StripPrefix("/static/portfolio/",
		mW.StaticFileServer("./static/portfolio")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)
		r.Post("/auth/send-otp", authService.SendOTP)
		r.Post("/auth/verify-otp", authService.VerifyOTP)

		r.Get("/services", catalogService.ListLiveServices)
		r.Get("/services/categories", catalogService.GetCategories)
		r.Get("/services/{id}", catalogService.GetService)
		r.Get("/artists/{id}", artistService.GetArtistProfile)

		// Payment provider webhook (HMAC-signed, not JWT)
		r.Post("/payments/webhook", paymentService.HandleWebhook)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetAccount)

			// Unlock and SyncCoin endpoints (user principals only; the ids
			// in these tokens index the users table)
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(mW.RoleUser))

				r.Post("/unlock", unlockService.CreateUnlock)
				r.Get("/unlocks/contact/{serviceId}", unlockService.GetContact)
				r.Get("/unlocks/contact-qr/{serviceId}", qrHandler.ContactQR)
				r.Get("/wallet/coins", walletService.GetUserCoins)
				r.Get("/wallet/transactions", walletService.GetUserTransactions)
			})

			// Unlock lookups, readable by the owning user or an admin
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(mW.RoleUser, mW.RoleAdmin))

				r.Get("/unlocks/is-unlocked/{userId}/{serviceId}", unlockService.IsUnlocked)
				r.Get("/unlocks/user/{userId}", unlockService.ListUserUnlocks)
			})

			// Artist wallet and service management (artist principals only)
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(mW.RoleArtist))

				r.Get("/wallet/balance", walletService.GetArtistBalance)
				r.Get("/wallet/artist-transactions", walletService.GetArtistTransactions)

				r.Post("/services", catalogService.CreateService)
				r.Put("/services/{id}", catalogService.UpdateService)
				r.Delete("/services/{id}", catalogService.DeleteService)
				r.Put("/services/toggle/{id}", catalogService.ToggleLiveHandler)
			})

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireRole(mW.RoleAdmin))

				r.Put("/admin/artists/{id}/verify", artistService.VerifyArtist)
				r.Put("/admin/artists/{id}/block", artistService.BlockArtist)
				r.Put("/admin/artists/{id}/unblock", artistService.UnblockArtist)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
