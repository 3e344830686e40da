package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/config"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/delivery/http/handler"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/delivery/http/middleware"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/repository"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/logger"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/database"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/netmon"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/queue"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/storage"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/repository/localstore"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/repository/postgres"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/service"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/worker"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Base de données cloud. Injoignable au démarrage = mode dégradé: les
	// lectures retombent sur le store local et les écritures sont mises en
	// file d'attente.
	var cloudStore repository.AnchorStore
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logger.Warning("[MAIN] could not connect to database: %v. Running in degraded mode.", err)
	} else {
		defer db.Close()
		if err := database.EnsureSchema(db); err != nil {
			logger.Warning("[MAIN] could not ensure schema: %v", err)
		}
		cloudStore = postgres.NewAnchorStore(db)
	}

	// Store local durable. Lui seul est indispensable: sans persistance
	// locale la garantie de durabilité des créations tombe.
	localStore, err := localstore.New(cfg.DataDir)
	if err != nil {
		logger.Error("[MAIN] could not open local store at %s: %v", cfg.DataDir, err)
		return
	}

	// RabbitMQ pour le pipeline d'événements (report_created, report_synced,
	// geofence_enter). Optionnel: sans broker, les features asynchrones sont
	// simplement désactivées.
	publisher, err := queue.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		logger.Warning("[MAIN] could not connect to RabbitMQ: %v. Async features disabled.", err)
	} else {
		defer publisher.Close()
	}

	consumer, err := queue.NewRabbitConsumer(cfg.RabbitURL)
	if err != nil {
		logger.Warning("[MAIN] could not connect RabbitMQ consumer: %v", err)
	} else {
		defer consumer.Close()
	}

	// MinIO pour les photos jointes aux signalements.
	storagePlatform, err := storage.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		logger.Warning("[MAIN] could not connect to MinIO: %v", err)
	}
	storageService := service.NewStorageService(storagePlatform, cfg.PhotoBucket)
	if storagePlatform != nil {
		if err := storageService.Initialize(ctx); err != nil {
			logger.Warning("[MAIN] could not initialize storage bucket: %v", err)
		}
	}

	// Moniteur de connectivité: sonde TCP si une adresse est configurée,
	// sinon moniteur manuel piloté par POST /network.
	var monitor netmon.Monitor
	if cfg.ProbeAddr != "" {
		probe := netmon.NewProbe(cfg.ProbeAddr, cfg.ProbeInterval)
		go probe.Start(ctx)
		monitor = probe
	} else {
		monitor = netmon.NewManual(true)
	}

	// Injection des dépendances. Sans base, pas de comptes autorité: le
	// service auth refuse proprement au lieu de déréférencer un pool nil.
	var userRepo repository.UserRepository
	if db != nil {
		userRepo = postgres.NewUserRepository(db)
	}

	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	anchorService := service.NewAnchorService(cloudStore, localStore, monitor, publisher, cfg.WatchInterval)
	syncService := service.NewSyncService(cloudStore, localStore, monitor, publisher)
	geofenceService := service.NewGeofenceService(cfg.GeofenceRadius, publisher)
	statsService := service.NewStatsService(anchorService)

	// Les signalements déjà connus au démarrage sont surveillés d'emblée;
	// les suivants arrivent par le pipeline d'événements.
	if reports, err := anchorService.GetAllAnchors(ctx); err == nil {
		geofenceService.RegisterAnchors(reports)
	}

	authHandler := handler.NewAuthHandler(authService)
	anchorHandler := handler.NewAnchorHandler(anchorService, storageService)
	statsHandler := handler.NewStatsHandler(statsService)
	syncHandler := handler.NewSyncHandler(syncService, geofenceService, monitor)

	// Coordinateur de synchronisation et consommateur d'événements
	syncService.Start(ctx)
	if consumer != nil {
		eventConsumer := worker.NewEventConsumer(consumer, geofenceService)
		go func() {
			if err := eventConsumer.Start(ctx); err != nil {
				logger.Warning("[MAIN] event consumer stopped: %v", err)
			}
		}()
	}

	// Configuration du routeur
	r := gin.Default()

	// Configuration CORS (Permissif pour le dev)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // À restreindre en prod
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authMiddleware := middleware.AuthMiddleware(authService)

	// Routes API Versioning
	api := r.Group("/api/v1")
	{
		// Auth (comptes autorité uniquement)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Signalements: création et lecture anonymes
		anchors := api.Group("/anchors")
		{
			anchors.POST("", middleware.RateLimitMiddleware(10, time.Minute), anchorHandler.Create)
			anchors.GET("", anchorHandler.List)
			anchors.GET("/nearby", anchorHandler.Nearby)
			anchors.GET("/watch", anchorHandler.Watch)
			anchors.GET("/upload-url", anchorHandler.GetUploadURL)
			anchors.POST("/:id/upvote", anchorHandler.Upvote)
			anchors.GET("/:id/guidance", anchorHandler.Guidance)
			anchors.GET("/:id/photo-url", anchorHandler.GetPhotoURL)

			// Changement de statut réservé aux comptes autorité
			anchors.PATCH("/:id/status", authMiddleware, anchorHandler.UpdateStatus)
		}

		api.POST("/surface-anchors", anchorHandler.CreateSurfaceAnchor)

		api.GET("/stats", statsHandler.GetStats)

		// État de synchronisation et signaux device
		api.GET("/sync/status", syncHandler.Status)
		api.POST("/location", syncHandler.ReportLocation)
		api.POST("/network", syncHandler.ReportNetwork)
	}

	// Santé
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"online": monitor.Online(),
			"cloud":  cloudStore != nil,
		})
	})

	logger.Info("[MAIN] server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("[MAIN] server stopped: %v", err)
	}
}
