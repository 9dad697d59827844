package main

import (
	"log/slog"
	"os"
	"time"

	"solar-dispatch/internal/api/handlers"
	"solar-dispatch/internal/api/middleware"
	"solar-dispatch/internal/data"
	"solar-dispatch/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	batteryDir := os.Getenv("BATTERY_DIR")
	if batteryDir == "" {
		batteryDir = "./examples/batteries"
	}

	deps := &handlers.Deps{
		DataDir:    dataDir,
		BatteryDir: batteryDir,
		Cache:      data.NewSampleCache(time.Hour),
		Log:        logger,
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.CORS())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler())

	simulateHandler := handlers.NewSimulateHandler(deps)
	sweepHandler := handlers.NewSweepHandler(deps)
	batteryHandler := handlers.NewBatteryHandler(deps)
	datasetHandler := handlers.NewDatasetHandler(deps)

	hub := ws.NewHub(logger)
	runner := ws.NewRunner(hub, logger)
	wsHandler := ws.NewHandler(hub, runner, deps, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.POST("/sweep", sweepHandler.RunSweep)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/datasets", datasetHandler.ListDatasets)
	}

	router.GET("/ws", gin.WrapH(wsHandler))

	// Serve static files from web/dist (if it exists)
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		staticDir = "./web/dist"
	}
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		router.Static("/app", staticDir)
	}

	logger.Info("starting api server",
		"port", port, "data_dir", dataDir, "battery_dir", batteryDir)
	if err := router.Run(":" + port); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
