package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/types"
)

type LeadRepo interface {
  Create(ctx context.Context, tx *gorm.DB, leads []*types.Lead) ([]*types.Lead, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, leadIDs []uuid.UUID) ([]*types.Lead, error)
  GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) ([]*types.Lead, error)
}

type leadRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
  repoLog := baseLog.With("repo", "LeadRepo")
  return &leadRepo{db: db, log: repoLog}
}

func (lr *leadRepo) Create(ctx context.Context, tx *gorm.DB, leads []*types.Lead) ([]*types.Lead, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }

  if len(leads) == 0 {
    return []*types.Lead{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&leads).Error; err != nil {
    return nil, err
  }

  return leads, nil
}

func (lr *leadRepo) GetByIDs(ctx context.Context, tx *gorm.DB, leadIDs []uuid.UUID) ([]*types.Lead, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }

  var results []*types.Lead

  if len(leadIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", leadIDs).
    Find(&results).Error; err != nil {
      return nil, err
  }
  return results, nil
}

func (lr *leadRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) ([]*types.Lead, error) {
  transaction := tx
  if transaction == nil {
    transaction = lr.db
  }

  var results []*types.Lead
  if sessionID == "" {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
