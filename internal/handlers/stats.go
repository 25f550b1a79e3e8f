package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/refap/refap-backend/internal/services"
)

type StatsHandler struct {
  chatService services.ChatService
}

func NewStatsHandler(csvc services.ChatService) *StatsHandler {
  return &StatsHandler{chatService: csvc}
}

// GET /api/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
  snapshot := h.chatService.Stats().Snapshot(h.chatService.SessionCount())
  RespondOK(c, snapshot)
}
