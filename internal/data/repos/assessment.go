package repos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

// AssessmentRepo reads face analysis results. The table carries one row per
// analysis pass and is keyed by request only; the newest row wins.
type AssessmentRepo interface {
	// GetLatestFaceType returns the normalized face type for a request, or
	// empty when no assessment row exists.
	GetLatestFaceType(dbc dbctx.Context, requestID int64) (domain.FaceType, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{
		db:  db,
		log: baseLog.With("repo", "AssessmentRepo"),
	}
}

func (r *assessmentRepo) GetLatestFaceType(dbc dbctx.Context, requestID int64) (domain.FaceType, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row domain.FaceAssessmentRow
	err := transaction.WithContext(dbc.Ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Limit(1).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return domain.NormalizeFaceType(row.FaceType), nil
}
