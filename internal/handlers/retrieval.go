package handlers

import (
  "fmt"
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/services"
)

type RetrievalHandler struct {
  log       *logger.Logger
  retrieval services.RetrievalClient
}

func NewRetrievalHandler(log *logger.Logger, rsvc services.RetrievalClient) *RetrievalHandler {
  return &RetrievalHandler{
    log:       log.With("handler", "RetrievalHandler"),
    retrieval: rsvc,
  }
}

// GET /api/retrieval/search?q=
// Debug side-channel onto the retrieval collaborator.
func (h *RetrievalHandler) Search(c *gin.Context) {
  q := strings.TrimSpace(c.Query("q"))
  if q == "" {
    RespondError(c, http.StatusBadRequest, "missing_query", fmt.Errorf("q required"))
    return
  }

  passages, err := h.retrieval.Search(c.Request.Context(), q)
  if err != nil {
    RespondError(c, http.StatusBadGateway, "retrieval_failed", err)
    return
  }
  if passages == nil {
    passages = []services.Passage{}
  }
  RespondOK(c, gin.H{"results": passages})
}
