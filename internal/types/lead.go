package types

import (
  "time"
  "github.com/google/uuid"
)

type Lead struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SessionID string    `gorm:"index;column:session_id" json:"session_id"`
  Name      string    `gorm:"not null;column:name" json:"name"`
  Phone     string    `gorm:"not null;column:phone" json:"phone"`
  Vehicle   string    `gorm:"column:vehicle" json:"vehicle,omitempty"`
  Postcode  string    `gorm:"column:postcode" json:"postcode,omitempty"`
  Note      string    `gorm:"column:note" json:"note,omitempty"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Lead) TableName() string {
  return "lead"
}
