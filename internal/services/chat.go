package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  "golang.org/x/sync/singleflight"
  "gorm.io/datatypes"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/repos"
  "github.com/refap/refap-backend/internal/session"
  "github.com/refap/refap-backend/internal/triage"
  "github.com/refap/refap-backend/internal/types"
)

// Static fallback used whenever the model collaborator fails; the user is
// never left without a reply and the computed CTAs still ship.
const fallbackReply = `Je rencontre un souci technique pour générer une réponse détaillée. ` +
  `D'après les éléments déjà fournis, le mieux est de faire contrôler le FAP : ` +
  `utilisez les boutons ci-dessous pour la suite.`

type TurnResult struct {
  SessionID string       `json:"sessionId"`
  Reply     string       `json:"reply"`
  Stage     string       `json:"stage"`
  Next      string       `json:"next,omitempty"`
  CTAs      []triage.CTA `json:"ctas"`
  CTA       *triage.CTA  `json:"cta"`
}

type ChatService interface {
  HandleTurn(ctx context.Context, sessionID, message string) (*TurnResult, error)
  StreamTurn(ctx context.Context, sessionID, message string, onDelta func(delta string)) (*TurnResult, error)
  Stats() *Stats
  SessionCount() int
}

type chatService struct {
  log       *logger.Logger
  manager   *session.Manager
  llm       LLMClient
  retrieval RetrievalClient
  cache     ReplyCache
  turnLogs  repos.TurnLogRepo

  sf    singleflight.Group
  stats Stats
}

// turnLogs and cache may be nil: lead analytics and caching are optional
// collaborators and the chat flow runs without them.
func NewChatService(baseLog *logger.Logger, manager *session.Manager, llm LLMClient, retrieval RetrievalClient, cache ReplyCache, turnLogs repos.TurnLogRepo) ChatService {
  return &chatService{
    log:       baseLog.With("service", "ChatService"),
    manager:   manager,
    llm:       llm,
    retrieval: retrieval,
    cache:     cache,
    turnLogs:  turnLogs,
  }
}

func (s *chatService) Stats() *Stats {
  return &s.stats
}

func (s *chatService) SessionCount() int {
  return s.manager.Store().Len()
}

func (s *chatService) HandleTurn(ctx context.Context, sessionID, message string) (*TurnResult, error) {
  return s.turn(ctx, sessionID, message, nil)
}

func (s *chatService) StreamTurn(ctx context.Context, sessionID, message string, onDelta func(delta string)) (*TurnResult, error) {
  s.stats.StreamTurns.Add(1)
  return s.turn(ctx, sessionID, message, onDelta)
}

func (s *chatService) turn(ctx context.Context, sessionID, message string, onDelta func(delta string)) (*TurnResult, error) {
  message = strings.TrimSpace(message)
  if message == "" {
    return nil, fmt.Errorf("message required")
  }
  s.stats.Turns.Add(1)

  // The decision pass is synchronous and CPU-only; every collaborator call
  // below happens after the session's slot state is settled for this turn.
  st := s.manager.Turn(sessionID, message)
  sess := st.Session

  var passages []Passage
  if s.retrieval != nil {
    got, err := s.retrieval.Search(ctx, message)
    if err != nil {
      s.log.Warn("Retrieval failed, continuing without context", "session_id", sess.ID, "error", err)
    } else {
      passages = got
    }
  }

  system := ComposeSystemPrompt(st, passages)
  history := historyMessages(st.History)

  key := PromptCacheKey(system, history, message)
  var reply string
  cacheHit := false
  if s.cache != nil {
    if cached, ok := s.cache.Get(ctx, key); ok {
      cacheHit = true
      s.stats.CacheHits.Add(1)
      reply = cached
      if onDelta != nil {
        for _, chunk := range ChunkReply(cached, 48) {
          onDelta(chunk)
        }
      }
    }
  }
  if !cacheHit {
    reply = s.generate(ctx, key, system, history, message, onDelta)
  }

  reply = SanitizeReply(reply, st.Decision.CTAs)

  sess.Lock()
  sess.AppendExchange(message, reply)
  sess.Unlock()

  s.logTurn(sess.ID, st, cacheHit)

  res := &TurnResult{
    SessionID: sess.ID,
    Reply:     reply,
    Stage:     string(st.Stage),
    Next:      string(st.Next),
    CTAs:      st.Decision.CTAs,
    CTA:       st.Decision.Primary(),
  }
  if res.CTAs == nil {
    res.CTAs = []triage.CTA{}
  }
  return res, nil
}

// generate calls the model, collapsing concurrent identical prompts through
// singleflight on the non-streaming path. Any model failure degrades to the
// static fallback script; partial streamed text is discarded, never cached.
func (s *chatService) generate(ctx context.Context, key, system string, history []ChatMessage, message string, onDelta func(delta string)) string {
  if onDelta != nil {
    reply, err := s.llm.CompleteStream(ctx, system, history, message, onDelta)
    if err != nil {
      s.stats.LLMFailures.Add(1)
      s.log.Warn("LLM stream failed, using fallback reply", "error", err)
      onDelta(fallbackReply)
      return fallbackReply
    }
    if s.cache != nil {
      s.cache.Set(ctx, key, reply)
    }
    return reply
  }

  out, err, _ := s.sf.Do(key, func() (interface{}, error) {
    return s.llm.Complete(ctx, system, history, message)
  })
  if err != nil {
    s.stats.LLMFailures.Add(1)
    s.log.Warn("LLM call failed, using fallback reply", "error", err)
    return fallbackReply
  }
  reply := out.(string)
  if s.cache != nil {
    s.cache.Set(ctx, key, reply)
  }
  return reply
}

// logTurn persists the decision trace, store-and-forget: an analytics outage
// never touches the user-visible flow.
func (s *chatService) logTurn(sessionID string, st session.TurnState, cacheHit bool) {
  if s.turnLogs == nil {
    return
  }
  ctasJSON, err := json.Marshal(st.Decision.CTAs)
  if err != nil {
    ctasJSON = []byte("[]")
  }
  missingJSON, err := json.Marshal(st.Decision.MissingSlots)
  if err != nil {
    missingJSON = []byte("[]")
  }
  entry := &types.TurnLog{
    SessionID:    sessionID,
    Stage:        string(st.Stage),
    Score:        st.Decision.Score,
    Route:        string(st.Decision.Route),
    Severe:       st.Decision.Severe,
    CTAs:         datatypes.JSON(ctasJSON),
    MissingSlots: datatypes.JSON(missingJSON),
    CacheHit:     cacheHit,
  }
  go func() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if _, err := s.turnLogs.Create(ctx, nil, []*types.TurnLog{entry}); err != nil {
      s.log.Warn("Turn log write failed", "session_id", sessionID, "error", err)
    }
  }()
}

func historyMessages(history []session.Exchange) []ChatMessage {
  var msgs []ChatMessage
  for _, ex := range history {
    if ex.User != "" {
      msgs = append(msgs, ChatMessage{Role: "user", Content: ex.User})
    }
    if ex.Assistant != "" {
      msgs = append(msgs, ChatMessage{Role: "assistant", Content: ex.Assistant})
    }
  }
  return msgs
}
