package services

import (
  "context"
  "fmt"
  "regexp"
  "strings"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/repos"
  "github.com/refap/refap-backend/internal/types"
)

type LeadInput struct {
  SessionID string `json:"sessionId,omitempty"`
  Name      string `json:"name"`
  Phone     string `json:"phone"`
  Vehicle   string `json:"vehicle,omitempty"`
  Postcode  string `json:"postcode,omitempty"`
  Note      string `json:"note,omitempty"`
}

type LeadService interface {
  Capture(ctx context.Context, input LeadInput) (uuid.UUID, error)
}

type leadService struct {
  db    *gorm.DB
  log   *logger.Logger
  repo  repos.LeadRepo
  stats *Stats
}

func NewLeadService(db *gorm.DB, baseLog *logger.Logger, repo repos.LeadRepo, stats *Stats) LeadService {
  return &leadService{
    db:    db,
    log:   baseLog.With("service", "LeadService"),
    repo:  repo,
    stats: stats,
  }
}

var phoneRe = regexp.MustCompile(`^(?:\+33|0)[1-9](?:[ .-]?[0-9]{2}){4}$`)

// Capture persists a callback request with store-and-forget semantics:
// validation errors surface, storage errors are logged and swallowed so the
// chat flow that collected the contact never fails in front of the user.
func (s *leadService) Capture(ctx context.Context, input LeadInput) (uuid.UUID, error) {
  name := strings.TrimSpace(input.Name)
  phone := strings.TrimSpace(input.Phone)
  if name == "" {
    return uuid.Nil, fmt.Errorf("name required")
  }
  if !phoneRe.MatchString(phone) {
    return uuid.Nil, fmt.Errorf("phone number invalid")
  }

  lead := &types.Lead{
    ID:        uuid.New(),
    SessionID: strings.TrimSpace(input.SessionID),
    Name:      name,
    Phone:     phone,
    Vehicle:   strings.TrimSpace(input.Vehicle),
    Postcode:  strings.TrimSpace(input.Postcode),
    Note:      strings.TrimSpace(input.Note),
  }

  if s.repo == nil || s.db == nil {
    s.log.Warn("Lead storage unavailable, lead dropped", "lead_id", lead.ID)
    if s.stats != nil {
      s.stats.LeadsLost.Add(1)
    }
    return lead.ID, nil
  }

  if _, err := s.repo.Create(ctx, nil, []*types.Lead{lead}); err != nil {
    s.log.Warn("Lead persist failed, returning success to caller", "lead_id", lead.ID, "error", err)
    if s.stats != nil {
      s.stats.LeadsLost.Add(1)
    }
    return lead.ID, nil
  }

  if s.stats != nil {
    s.stats.LeadsStored.Add(1)
  }
  s.log.Info("Lead captured", "lead_id", lead.ID, "session_id", lead.SessionID)
  return lead.ID, nil
}
