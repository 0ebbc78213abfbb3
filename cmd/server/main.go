package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sheetlens/sheetlens/internal/application/services"
	"github.com/sheetlens/sheetlens/internal/infrastructure/persistence"
	"github.com/sheetlens/sheetlens/internal/infrastructure/transport"
	"github.com/sheetlens/sheetlens/internal/interfaces/middleware"
	"github.com/sheetlens/sheetlens/internal/interfaces/rest"
	"github.com/sheetlens/sheetlens/pkg/constants"
)

func main() {
	// Optional .env for local development
	for _, p := range []string{".env", "../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	port := os.Getenv(constants.EnvPort)
	if port == "" {
		port = constants.DefaultPort
	}

	statePath := os.Getenv(constants.EnvStateDBPath)
	if statePath == "" {
		statePath = "data/sheetlens.db"
	}

	store, err := persistence.NewStateRepository(statePath)
	if err != nil {
		log.Fatalf("Failed to open state store: %v", err)
	}
	defer store.Close()
	log.Println("✅ State store opened")

	client := transport.NewClient()
	svcMgr := services.NewServiceManager(client, store)
	log.Println("🔧 Service manager initialized")

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	sheetHandler := rest.NewSheetHandler(svcMgr)

	// API routes
	api := router.Group("/api")
	{
		sheets := api.Group("/sheets")
		{
			sheets.POST("/load", sheetHandler.Load)
			sheets.GET("/current", sheetHandler.Current)
			sheets.POST("/reset", sheetHandler.Reset)
			sheets.GET("/last-url", sheetHandler.LastURL)
		}
	}

	// The viewer page
	router.StaticFile("/", "./web/static/index.html")
	router.Static("/static", "./web/static")

	log.Println("\n═══════════════════════════════════════════════════════")
	log.Println("🚀 SheetLens Started Successfully")
	log.Println("═══════════════════════════════════════════════════════")
	log.Printf("\n📍 Viewer:        http://localhost:%s/", port)
	log.Printf("📊 Sheets API:    http://localhost:%s/api/sheets", port)
	log.Printf("💚 Health check:  http://localhost:%s/health\n", port)

	// Create HTTP Server
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
