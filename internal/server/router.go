package server

import (
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"

  "github.com/refap/refap-backend/internal/handlers"
  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/middleware"
  "github.com/refap/refap-backend/internal/utils"
)

type RouterConfig struct {
  Log               *logger.Logger
  ChatHandler       *handlers.ChatHandler
  LeadHandler       *handlers.LeadHandler
  RetrievalHandler  *handlers.RetrievalHandler
  StatsHandler      *handlers.StatsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(gin.Recovery())
  router.Use(middleware.RequestLog(cfg.Log))

  // Cors
  allowedOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "https://re-fap.fr,http://localhost:3000", cfg.Log), ",")
  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowedOrigins,
    AllowMethods:     []string{"GET", "POST", "OPTIONS"},
    AllowHeaders:     []string{"Content-Type", "X-Requested-With", "X-Request-ID"},
    AllowCredentials: true,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  api := router.Group("/api")
  {
    api.POST("/chat", cfg.ChatHandler.PostChat)
    api.POST("/chat/stream", cfg.ChatHandler.PostChatStream)
    api.POST("/leads", cfg.LeadHandler.PostLead)
    api.GET("/retrieval/search", cfg.RetrievalHandler.Search)
    api.GET("/stats", cfg.StatsHandler.GetStats)
  }

  return router
}
