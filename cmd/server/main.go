package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"
	"time"

	"arguesurvey/config"
	"arguesurvey/db"
	"arguesurvey/internal/logging"
	"arguesurvey/routes"
	"arguesurvey/services"
	"arguesurvey/utils"
	"arguesurvey/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./config/config.yml", "path to the YAML config")
	flag.Parse()

	// Load the configuration; a missing file falls back to defaults
	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// MongoDB is optional: responses are always archived on disk
	if cfg.Database.URI != "" {
		if err := db.ConnectMongoDB(cfg.Database.URI); err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer db.DisconnectMongoDB(context.Background())
	}

	if wrote, err := utils.CreateSampleData(cfg.Survey.DataPath); err != nil {
		logger.Fatal("failed to create sample data", zap.Error(err))
	} else if wrote {
		logger.Info("created sample data", zap.String("path", cfg.Survey.DataPath))
	}

	if err := services.InitArchiveService(cfg.Survey.ResponsesDir, logger); err != nil {
		logger.Fatal("failed to init archive service", zap.Error(err))
	}

	hub := websocket.NewHub(logger)
	if err := services.InitSurveyService(context.Background(), cfg, hub, logger); err != nil {
		logger.Fatal("failed to init survey service", zap.Error(err))
	}

	router := setupRouter(cfg, hub)
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr),
			zap.String("data", cfg.Survey.DataPath), zap.String("responses", cfg.Survey.ResponsesDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := services.GetSurveyService().Shutdown(); err != nil {
		logger.Error("failed to close durable store", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, hub *websocket.Hub) *gin.Engine {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}
	if slices.Contains(cfg.Server.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	routes.SetupResponseRoutes(router)
	routes.SetupSurveyRoutes(router)
	router.GET("/ws/:clientId", hub.Handler)
	routes.SetupStaticRoutes(router, filepath.Dir(cfg.Survey.DataPath), cfg.Server.StaticDir)

	return router
}
