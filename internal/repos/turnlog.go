package repos

import (
  "context"
  "gorm.io/gorm"
  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/types"
)

type TurnLogRepo interface {
  Create(ctx context.Context, tx *gorm.DB, logs []*types.TurnLog) ([]*types.TurnLog, error)
  GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) ([]*types.TurnLog, error)
}

type turnLogRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewTurnLogRepo(db *gorm.DB, baseLog *logger.Logger) TurnLogRepo {
  repoLog := baseLog.With("repo", "TurnLogRepo")
  return &turnLogRepo{db: db, log: repoLog}
}

func (tr *turnLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.TurnLog) ([]*types.TurnLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  if len(logs) == 0 {
    return []*types.TurnLog{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
    return nil, err
  }

  return logs, nil
}

func (tr *turnLogRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID string) ([]*types.TurnLog, error) {
  transaction := tx
  if transaction == nil {
    transaction = tr.db
  }

  var results []*types.TurnLog
  if sessionID == "" {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
