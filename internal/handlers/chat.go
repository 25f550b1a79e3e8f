package handlers

import (
  "encoding/json"
  "fmt"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/services"
  "github.com/refap/refap-backend/internal/sse"
)

type ChatHandler struct {
  log         *logger.Logger
  chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, csvc services.ChatService) *ChatHandler {
  return &ChatHandler{
    log:         log.With("handler", "ChatHandler"),
    chatService: csvc,
  }
}

type chatRequest struct {
  Message   json.RawMessage `json:"message"`
  SessionID string          `json:"sessionId"`
}

// parseMessage rejects an absent or non-string message before any session
// state is touched.
func (r chatRequest) parseMessage() (string, error) {
  if len(r.Message) == 0 {
    return "", fmt.Errorf("message required")
  }
  var msg string
  if err := json.Unmarshal(r.Message, &msg); err != nil {
    return "", fmt.Errorf("message must be a string")
  }
  if msg == "" {
    return "", fmt.Errorf("message required")
  }
  return msg, nil
}

// POST /api/chat
func (h *ChatHandler) PostChat(c *gin.Context) {
  var req chatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  msg, err := req.parseMessage()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_message", err)
    return
  }

  result, err := h.chatService.HandleTurn(c.Request.Context(), req.SessionID, msg)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "chat_failed", err)
    return
  }
  RespondOK(c, result)
}

// POST /api/chat/stream
// Emits SSE: "delta" events with text fragments, then a "done" event
// carrying the full turn result (session id included).
func (h *ChatHandler) PostChatStream(c *gin.Context) {
  var req chatRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  msg, err := req.parseMessage()
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_message", err)
    return
  }

  writer, err := sse.NewWriter(c.Writer)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "stream_unsupported", err)
    return
  }

  onDelta := func(delta string) {
    if sendErr := writer.Send("delta", gin.H{"text": delta}); sendErr != nil {
      h.log.Debug("SSE delta write failed, client likely gone", "error", sendErr)
    }
  }

  result, err := h.chatService.StreamTurn(c.Request.Context(), req.SessionID, msg, onDelta)
  if err != nil {
    _ = writer.Send("error", gin.H{"message": err.Error()})
    return
  }
  _ = writer.Send("done", result)
}
