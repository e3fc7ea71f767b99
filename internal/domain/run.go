package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// SimulationRun is the audit row for one orchestration run. This table is
// owned by this service (it is the only one AutoMigrate creates).
type SimulationRun struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    int64          `gorm:"column:user_id;not null;index:idx_sim_run_user_request" json:"user_id"`
	RequestID int64          `gorm:"column:request_id;not null;index:idx_sim_run_user_request" json:"request_id"`
	Status    string         `gorm:"column:status;not null;index" json:"status"`
	Error     string         `gorm:"column:error" json:"error,omitempty"`
	Result    datatypes.JSON `gorm:"column:result;type:jsonb" json:"result,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SimulationRun) TableName() string { return "simulation_run" }
