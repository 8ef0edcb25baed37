package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ShakaTry/DiceBot/internal/config"
	"github.com/ShakaTry/DiceBot/internal/handlers"
	"github.com/ShakaTry/DiceBot/internal/logger"
	"github.com/ShakaTry/DiceBot/internal/metrics"
	"github.com/ShakaTry/DiceBot/internal/middleware"
	"github.com/ShakaTry/DiceBot/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New("dicebot-api", cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	wsHandler := handlers.NewWebSocketHandler(zlog)
	authHandler := handlers.NewAuthHandler(jwtService)
	simHandler := handlers.NewSimulationHandler(redisService, wsHandler, zlog)
	fairHandler, err := handlers.NewFairHandler()
	if err != nil {
		log.Fatalf("Failed to seed fair handler: %v", err)
	}

	metricsSrv := metrics.StartServer(cfg.MetricsPort, redisService.Ping)
	defer metricsSrv.Shutdown(context.Background())

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/token", authHandler.IssueToken)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.GET("/strategies", simHandler.ListStrategies)

		simulations := protected.Group("/simulations")
		{
			simulations.POST("", simHandler.RunSimulation)
			simulations.GET("", simHandler.ListSimulations)
			simulations.GET("/:id", simHandler.GetSimulation)
			simulations.DELETE("/:id", simHandler.DeleteSimulation)
		}

		protected.POST("/verify", fairHandler.VerifyRoll)

		seeds := protected.Group("/seeds")
		{
			seeds.GET("", fairHandler.GetSeeds)
			seeds.POST("/rotate", fairHandler.RotateSeeds)
			seeds.PUT("/client", fairHandler.SetClientSeed)
			seeds.GET("/history", fairHandler.SeedHistory)
		}
	}

	zlog.Sugar().Infof("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
