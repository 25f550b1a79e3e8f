package session

import (
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/triage"
)

type Stage string

const (
  StageGathering Stage = "gathering"
  StageReady     Stage = "ready_to_offer"
)

// historyLimit bounds the rolling exchange buffer. History is LLM context
// only; no routing invariant ever reads it.
const historyLimit = 6

type Exchange struct {
  User      string
  Assistant string
}

// Session owns its slot map exclusively. The embedded mutex serializes turns
// for one session so a double-submit cannot interleave merge and routing.
type Session struct {
  ID        string
  Slots     triage.SlotMap
  Stage     Stage
  History   []Exchange
  CreatedAt time.Time
  UpdatedAt time.Time

  mu sync.Mutex
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// AppendExchange records one user/assistant pair, keeping the most recent
// historyLimit entries.
func (s *Session) AppendExchange(user, assistant string) {
  s.History = append(s.History, Exchange{User: user, Assistant: assistant})
  if len(s.History) > historyLimit {
    s.History = s.History[len(s.History)-historyLimit:]
  }
}

// Store abstracts session persistence so the decision core is decoupled from
// deployment topology; the in-memory table below serves a single process.
type Store interface {
  GetOrCreate(id string) (sess *Session, created bool)
  Get(id string) (*Session, bool)
  Len() int
}

type memoryStore struct {
  mu       sync.RWMutex
  sessions map[string]*Session
  log      *logger.Logger
}

func NewMemoryStore(log *logger.Logger) Store {
  return &memoryStore{
    sessions: make(map[string]*Session),
    log:      log.With("component", "SessionStore"),
  }
}

func (st *memoryStore) GetOrCreate(id string) (*Session, bool) {
  id = strings.TrimSpace(id)
  if id != "" {
    st.mu.RLock()
    sess, ok := st.sessions[id]
    st.mu.RUnlock()
    if ok {
      return sess, false
    }
  }

  st.mu.Lock()
  defer st.mu.Unlock()
  if id != "" {
    // Unknown ids from stale clients get a fresh session under that id.
    if sess, ok := st.sessions[id]; ok {
      return sess, false
    }
  } else {
    id = uuid.NewString()
  }
  now := time.Now().UTC()
  sess := &Session{
    ID:        id,
    Slots:     triage.SlotMap{},
    Stage:     StageGathering,
    CreatedAt: now,
    UpdatedAt: now,
  }
  st.sessions[id] = sess
  st.log.Debug("Session created", "session_id", id)
  return sess, true
}

func (st *memoryStore) Get(id string) (*Session, bool) {
  st.mu.RLock()
  defer st.mu.RUnlock()
  sess, ok := st.sessions[strings.TrimSpace(id)]
  return sess, ok
}

func (st *memoryStore) Len() int {
  st.mu.RLock()
  defer st.mu.RUnlock()
  return len(st.sessions)
}
