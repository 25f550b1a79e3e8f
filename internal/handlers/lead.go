package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/services"
)

type LeadHandler struct {
  log         *logger.Logger
  leadService services.LeadService
}

func NewLeadHandler(log *logger.Logger, lsvc services.LeadService) *LeadHandler {
  return &LeadHandler{
    log:         log.With("handler", "LeadHandler"),
    leadService: lsvc,
  }
}

// POST /api/leads
// Returns 202: persistence is store-and-forget, the caller only learns about
// validation problems.
func (h *LeadHandler) PostLead(c *gin.Context) {
  var input services.LeadInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }

  id, err := h.leadService.Capture(c.Request.Context(), input)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_lead", err)
    return
  }
  c.JSON(http.StatusAccepted, gin.H{"id": id})
}
