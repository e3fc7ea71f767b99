package repos

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

// RequestRepo reads the submitted request that a run works from. A nil
// profile with a nil error means the request does not exist.
type RequestRepo interface {
	GetProfile(dbc dbctx.Context, userID, requestID int64) (*domain.Profile, error)
}

type requestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRequestRepo(db *gorm.DB, baseLog *logger.Logger) RequestRepo {
	return &requestRepo{
		db:  db,
		log: baseLog.With("repo", "RequestRepo"),
	}
}

func (r *requestRepo) GetProfile(dbc dbctx.Context, userID, requestID int64) (*domain.Profile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var row domain.RequestRow
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND request_id = ?", userID, requestID).
		Limit(1).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		UserID:             row.UserID,
		RequestID:          row.RequestID,
		SourceImageLocator: row.UserImageURL,
		Sex:                domain.NormalizeSex(row.Sex),
		HairLength:         domain.NormalizeHairLength(row.HairLength),
		HasBangs:           domain.NormalizeBangs(row.HasBangs),
	}, nil
}
