package api

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mediafetch/internal/api/handler"
	"github.com/timmy/mediafetch/internal/api/middleware"
	"github.com/timmy/mediafetch/internal/config"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	downloadService *service.DownloadService,
	cfg *config.ServerConfig,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(downloadService)
	downloadHandler := handler.NewDownloadHandler(downloadService)

	// Health check
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		api.POST("/download", downloadHandler.CreateDownload)
		api.GET("/progress/:id", downloadHandler.Progress)
		api.GET("/logs/:id", downloadHandler.GetLogs)
		api.GET("/downloads", downloadHandler.ListFiles)
		api.GET("/history", downloadHandler.ListHistory)
		api.GET("/history/:id", downloadHandler.GetHistory)
	}

	mountStatic(r, cfg.StaticDir)

	return r
}

// mountStatic serves the web page from dir when it exists.
func mountStatic(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}

	r.Static("/static", dir)
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		r.StaticFile("/", index)
	}
}
