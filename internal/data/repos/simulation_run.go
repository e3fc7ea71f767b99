package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

// SimulationRunRepo owns the audit trail for orchestration runs.
type SimulationRunRepo interface {
	Create(dbc dbctx.Context, run *domain.SimulationRun) (*domain.SimulationRun, error)
	MarkRunning(dbc dbctx.Context, id uuid.UUID) error
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, runErr string) error
	GetLatest(dbc dbctx.Context, userID, requestID int64) (*domain.SimulationRun, error)
	HasActive(dbc dbctx.Context, userID, requestID int64) (bool, error)
}

// activeRunStaleness bounds how long a queued/running row can block new
// submissions. A process killed mid-run never reaches MarkFailed, so an
// unbounded check would wedge the pair until someone edits the table by
// hand. Matches the redis lease TTL.
const activeRunStaleness = 30 * time.Minute

type simulationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSimulationRunRepo(db *gorm.DB, baseLog *logger.Logger) SimulationRunRepo {
	return &simulationRunRepo{
		db:  db,
		log: baseLog.With("repo", "SimulationRunRepo"),
	}
}

func (r *simulationRunRepo) Create(dbc dbctx.Context, run *domain.SimulationRun) (*domain.SimulationRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run == nil {
		return nil, errors.New("nil run")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = domain.RunStatusQueued
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *simulationRunRepo) MarkRunning(dbc dbctx.Context, id uuid.UUID) error {
	return r.updateFields(dbc, id, map[string]interface{}{
		"status": domain.RunStatusRunning,
	})
}

func (r *simulationRunRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID, result datatypes.JSON) error {
	return r.updateFields(dbc, id, map[string]interface{}{
		"status": domain.RunStatusSucceeded,
		"result": result,
		"error":  "",
	})
}

func (r *simulationRunRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, runErr string) error {
	return r.updateFields(dbc, id, map[string]interface{}{
		"status": domain.RunStatusFailed,
		"error":  runErr,
	})
}

func (r *simulationRunRepo) updateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	updates["updated_at"] = time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.SimulationRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *simulationRunRepo) GetLatest(dbc dbctx.Context, userID, requestID int64) (*domain.SimulationRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run domain.SimulationRun
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND request_id = ?", userID, requestID).
		Order("created_at DESC").
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *simulationRunRepo) HasActive(dbc dbctx.Context, userID, requestID int64) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&domain.SimulationRun{}).
		Where("user_id = ? AND request_id = ? AND status IN ? AND updated_at > ?",
			userID, requestID,
			[]string{domain.RunStatusQueued, domain.RunStatusRunning},
			time.Now().Add(-activeRunStaleness)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
