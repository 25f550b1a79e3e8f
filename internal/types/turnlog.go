package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// TurnLog is the per-turn analytics record: the routing decision as computed,
// not the user-facing text. Written fire-and-forget after each turn.
type TurnLog struct {
  ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SessionID    string         `gorm:"index;not null;column:session_id" json:"session_id"`
  Stage        string         `gorm:"column:stage" json:"stage"`
  Score        int            `gorm:"column:score" json:"score"`
  Route        string         `gorm:"column:route" json:"route"`
  Severe       bool           `gorm:"column:severe" json:"severe"`
  CTAs         datatypes.JSON `gorm:"type:jsonb;column:ctas" json:"ctas"`
  MissingSlots datatypes.JSON `gorm:"type:jsonb;column:missing_slots" json:"missing_slots"`
  CacheHit     bool           `gorm:"column:cache_hit" json:"cache_hit"`
  CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (TurnLog) TableName() string {
  return "turn_log"
}
