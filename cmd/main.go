package main

import (
  "fmt"
  "os"
  "gorm.io/gorm"
  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/utils"
  "github.com/refap/refap-backend/internal/db"
  "github.com/refap/refap-backend/internal/repos"
  "github.com/refap/refap-backend/internal/services"
  "github.com/refap/refap-backend/internal/session"
  "github.com/refap/refap-backend/internal/handlers"
  "github.com/refap/refap-backend/internal/server"
  "github.com/refap/refap-backend/internal/triage"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Postgres (optional: lead capture and turn logging degrade without it)
  var thePG *gorm.DB
  var leadRepo repos.LeadRepo
  var turnLogRepo repos.TurnLogRepo
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Warn("Postgres init failed, lead storage disabled", "error", err)
  } else {
    if err = postgresService.AutoMigrateAll(); err != nil {
      log.Warn("Postgres auto migration failed", "error", err)
    }
    thePG = postgresService.DB()
    log.Info("Setting up Repos from main...")
    leadRepo = repos.NewLeadRepo(thePG, log)
    turnLogRepo = repos.NewTurnLogRepo(thePG, log)
  }

  // Decision engine
  log.Info("Setting up triage engine from main...")
  patterns := triage.DefaultPatterns()
  if path := utils.GetEnv("SIGNAL_PATTERNS_PATH", "", log); path != "" {
    loaded, err := triage.LoadPatternsFile(path)
    if err != nil {
      log.Warn("Signal pattern override rejected, keeping defaults", "path", path, "error", err)
    } else {
      patterns = loaded
    }
  }
  engine := triage.NewEngine(patterns, triage.DefaultCatalog(log))

  // Sessions
  store := session.NewMemoryStore(log)
  manager := session.NewManager(engine, store, log)

  // Services
  log.Info("Setting up Services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  retrievalClient := services.NewRetrievalClient(log)
  var replyCache services.ReplyCache
  replyCache, err = services.NewRedisReplyCache(log)
  if err != nil {
    log.Warn("Reply cache disabled", "error", err)
    replyCache = nil
  }
  chatService := services.NewChatService(log, manager, openaiClient, retrievalClient, replyCache, turnLogRepo)
  leadService := services.NewLeadService(thePG, log, leadRepo, chatService.Stats())

  // Handlers
  log.Info("Setting up handlers from main...")
  chatHandler := handlers.NewChatHandler(log, chatService)
  leadHandler := handlers.NewLeadHandler(log, leadService)
  retrievalHandler := handlers.NewRetrievalHandler(log, retrievalClient)
  statsHandler := handlers.NewStatsHandler(chatService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    Log:              log,
    ChatHandler:      chatHandler,
    LeadHandler:      leadHandler,
    RetrievalHandler: retrievalHandler,
    StatsHandler:     statsHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
