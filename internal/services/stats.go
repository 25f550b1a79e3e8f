package services

import "sync/atomic"

// Stats are process-lifetime counters exposed on the stats side-channel.
type Stats struct {
  Turns       atomic.Int64
  StreamTurns atomic.Int64
  CacheHits   atomic.Int64
  LLMFailures atomic.Int64
  LeadsStored atomic.Int64
  LeadsLost   atomic.Int64
}

type StatsSnapshot struct {
  Turns       int64 `json:"turns"`
  StreamTurns int64 `json:"stream_turns"`
  CacheHits   int64 `json:"cache_hits"`
  LLMFailures int64 `json:"llm_failures"`
  LeadsStored int64 `json:"leads_stored"`
  LeadsLost   int64 `json:"leads_lost"`
  Sessions    int   `json:"sessions"`
}

func (s *Stats) Snapshot(sessions int) StatsSnapshot {
  return StatsSnapshot{
    Turns:       s.Turns.Load(),
    StreamTurns: s.StreamTurns.Load(),
    CacheHits:   s.CacheHits.Load(),
    LLMFailures: s.LLMFailures.Load(),
    LeadsStored: s.LeadsStored.Load(),
    LeadsLost:   s.LeadsLost.Load(),
    Sessions:    sessions,
  }
}
