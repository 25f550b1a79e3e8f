package session

import (
  "time"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/triage"
)

// TurnState is the decision core's output for one turn: everything the reply
// composer and the HTTP layer need, computed before any LLM call.
type TurnState struct {
  Session  *Session
  Created  bool
  Stage    Stage
  Decision triage.Decision
  // Next is the slot to ask about, empty when nothing is missing.
  Next triage.Slot
  // History is a snapshot taken under the session lock, safe to read after
  // the turn's slot mutation has finished.
  History []Exchange
}

// Manager owns per-session turn processing: extract, merge, stage, route.
// The whole pass is synchronous and CPU-only; outbound calls happen after it.
type Manager struct {
  engine *triage.Engine
  store  Store
  log    *logger.Logger
}

func NewManager(engine *triage.Engine, store Store, baseLog *logger.Logger) *Manager {
  return &Manager{
    engine: engine,
    store:  store,
    log:    baseLog.With("component", "SessionManager"),
  }
}

func (m *Manager) Store() Store {
  return m.store
}

// Turn runs the per-turn algorithm under the session lock so concurrent
// submits for one session serialize: turn N+1 observes turn N's slot writes.
func (m *Manager) Turn(sessionID, message string) TurnState {
  sess, created := m.store.GetOrCreate(sessionID)
  sess.Lock()
  defer sess.Unlock()

  m.absorb(sess, message)
  sess.UpdatedAt = time.Now().UTC()

  // Once ready, stays ready: routing-needed slots (postcode, plate) are
  // tracked separately and never regress the stage.
  if sess.Stage != StageReady && hasAll(sess.Slots, triage.RequiredSlots) {
    sess.Stage = StageReady
    m.log.Debug("Session ready to offer", "session_id", sess.ID)
  }

  dec := m.engine.DecideRouting(sess.Slots)

  st := TurnState{
    Session:  sess,
    Created:  created,
    Stage:    sess.Stage,
    Decision: dec,
    History:  append([]Exchange(nil), sess.History...),
  }
  if sess.Stage == StageGathering {
    st.Next = nextMissing(sess.Slots, triage.SlotPriority)
  } else if len(dec.MissingSlots) > 0 {
    st.Next = nextMissing(sess.Slots, dec.MissingSlots)
  }
  return st
}

// absorb extracts signals and soft slots from one message and merges them.
// Extraction is best effort: on a panic from pathological input the message
// is kept as a plain symptom note so the conversation never aborts.
func (m *Manager) absorb(sess *Session, message string) {
  defer func() {
    if r := recover(); r != nil {
      m.log.Warn("Slot extraction failed, keeping message as symptom note",
        "session_id", sess.ID, "panic", r)
      sess.Slots = triage.MergeSlots(sess.Slots, triage.SlotMap{
        triage.SlotSymptoms: message,
      })
    }
  }()

  sig := m.engine.ExtractSignals(message)
  incoming := m.engine.SlotsFromSignals(sig, message)
  soft := m.engine.SoftExtractSlots(message)
  for slot, val := range soft {
    incoming[slot] = val
  }
  sess.Slots = triage.MergeSlots(sess.Slots, incoming)
}

func hasAll(slots triage.SlotMap, wanted []triage.Slot) bool {
  for _, s := range wanted {
    if !slots.Has(s) {
      return false
    }
  }
  return true
}

func nextMissing(slots triage.SlotMap, order []triage.Slot) triage.Slot {
  for _, s := range order {
    if !slots.Has(s) {
      return s
    }
  }
  return ""
}
