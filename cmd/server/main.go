package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/intakt/hunter/backend/internal/auth"
	"github.com/intakt/hunter/backend/internal/cache"
	"github.com/intakt/hunter/backend/internal/config"
	"github.com/intakt/hunter/backend/internal/contacts"
	"github.com/intakt/hunter/backend/internal/database"
	"github.com/intakt/hunter/backend/internal/email"
	"github.com/intakt/hunter/backend/internal/handlers"
	"github.com/intakt/hunter/backend/internal/ingest"
	"github.com/intakt/hunter/backend/internal/leads"
	"github.com/intakt/hunter/backend/internal/lists"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/middleware"
	"github.com/intakt/hunter/backend/internal/realtime"
	"github.com/intakt/hunter/backend/internal/scrape"
	"github.com/intakt/hunter/backend/internal/util"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	// A placeholder database URL means no credentials were configured; the
	// service comes up anyway and serves empty data.
	var db *gorm.DB
	if !cfg.Degraded() {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Log.Error("database connection failed, continuing degraded", zap.Error(err))
			db = nil
		} else {
			if err := database.Migrate(db); err != nil {
				logger.Log.Error("migrations failed", zap.Error(err))
			}
			defer database.Close(db)
		}
	}

	// Redis is an accelerator; a connection failure just disables caching.
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Log.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	defer redisClient.Close()

	var mailer auth.Mailer
	if cfg.EmailFrom != "" {
		emailSvc, err := email.NewService(cfg.AWSRegion, cfg.EmailFrom, cfg.EmailFromName, cfg.AppBaseURL)
		if err != nil {
			logger.Log.Warn("email service unavailable, reset mails disabled", zap.Error(err))
		} else {
			mailer = emailSvc
		}
	}

	authSvc := auth.NewService(db, []byte(cfg.JWTSecret), mailer)
	leadsSvc := leads.NewService(db)
	contactsSvc := contacts.NewService(db, redisClient)
	listsSvc := lists.NewService(db)
	scrapeClient := scrape.NewClient(cfg.WebhookURL, nil, redisClient)

	hub := realtime.NewHub()
	ingestSvc := ingest.NewService(db, hub, contactsSvc)
	wsHandler := realtime.NewHandler(hub, authSvc)

	h := handlers.New(cfg, authSvc, leadsSvc, contactsSvc, listsSvc, scrapeClient, ingestSvc)

	router := buildRouter(cfg, h, wsHandler, db)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Port), zap.Bool("degraded", cfg.Degraded()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildRouter(cfg *config.Config, h *handlers.Handlers, ws *realtime.Handler, db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.GinLogger())
	router.Use(middleware.PrometheusMetrics())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Ingest-Token"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":   "ok",
			"degraded": cfg.Degraded(),
		}
		if db != nil {
			if err := database.Health(db); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
			}
		}
		c.JSON(http.StatusOK, status)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/password-reset", h.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)
		authGroup.GET("/me", h.AuthMiddleware(), h.Me)
	}

	authed := v1.Group("")
	authed.Use(h.AuthMiddleware())
	{
		authed.GET("/leads", h.ListLeads)
		authed.GET("/leads/:placeId", h.GetLead)
		authed.PATCH("/leads/:placeId/contacted", h.SetContacted)
		authed.GET("/leads/:placeId/contacts", h.LeadContacts)

		authed.POST("/lists", h.CreateList)
		authed.GET("/lists", h.ListLists)
		authed.DELETE("/lists/:listId", h.DeleteList)
		authed.POST("/lists/:listId/leads", h.AddLeadsToList)
		authed.GET("/lists/:listId/leads", h.ListLeadsInList)
		authed.DELETE("/lists/:listId/leads/:placeId", h.RemoveLeadFromList)

		authed.POST("/scrape", h.StartScrape)
		authed.GET("/scrape/last", h.LastScrapeForm)
	}

	// The websocket authenticates itself from the token query parameter.
	v1.GET("/ws", ws.HandleWebSocket)
	v1.GET("/ws/metrics", h.AuthMiddleware(), ws.HandleMetrics)

	ingestGroup := v1.Group("/ingest")
	ingestGroup.Use(h.IngestAuthMiddleware())
	{
		ingestGroup.POST("", h.IngestBatch)
		ingestGroup.POST("/delete", h.IngestDelete)
	}

	router.NoRoute(func(c *gin.Context) {
		util.RespondNotFound(c, "route")
	})

	return router
}
