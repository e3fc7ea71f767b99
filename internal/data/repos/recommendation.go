package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

// RecommendationRepo reads the recommendation slots for a run and writes the
// one column this service owns on them, simulation_image_url.
type RecommendationRepo interface {
	// GetCandidates returns every recommendation slot for the pair joined to
	// its catalog entry, ordered by hair_rec_id. Eligibility filtering is the
	// resolver's job, not SQL's.
	GetCandidates(dbc dbctx.Context, userID, requestID int64) ([]domain.Candidate, error)
	// UpdateSimulationResult sets simulation_image_url on one slot. It
	// reports whether a row actually matched; zero rows is not an error.
	UpdateSimulationResult(dbc dbctx.Context, userID, requestID, recID int64, locator string) (bool, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{
		db:  db,
		log: baseLog.With("repo", "RecommendationRepo"),
	}
}

type candidateRow struct {
	UserID             int64   `gorm:"column:user_id"`
	RequestID          int64   `gorm:"column:request_id"`
	HairRecID          int64   `gorm:"column:hair_rec_id"`
	HairID             int64   `gorm:"column:hair_id"`
	SimulationImageURL *string `gorm:"column:simulation_image_url"`
	HairstyleName      string  `gorm:"column:hairstyle_name"`
	HairstyleImageURL  string  `gorm:"column:hairstyle_image_url"`
	HairstyleLength    *string `gorm:"column:hairstyle_length"`
	HairstyleFace      *string `gorm:"column:hairstyle_face"`
	HairstyleBangs     *string `gorm:"column:hairstyle_bangs"`
}

func (r *recommendationRepo) GetCandidates(dbc dbctx.Context, userID, requestID int64) ([]domain.Candidate, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []candidateRow
	err := transaction.WithContext(dbc.Ctx).
		Table("hair_recommendation_table AS hr").
		Select("hr.user_id, hr.request_id, hr.hair_rec_id, hr.hair_id, hr.simulation_image_url, h.hairstyle_name, h.hairstyle_image_url, h.hairstyle_length, h.hairstyle_face, h.hairstyle_bangs").
		Joins("JOIN hairstyle_table AS h ON hr.hair_id = h.hair_id").
		Where("hr.user_id = ? AND hr.request_id = ?", userID, requestID).
		Order("hr.hair_rec_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Candidate{
			UserID:    row.UserID,
			RequestID: row.RequestID,
			RecID:     row.HairRecID,
			Entry: domain.CatalogEntry{
				HairID:                row.HairID,
				Name:                  row.HairstyleName,
				ReferenceImageLocator: row.HairstyleImageURL,
				LengthClass:           row.HairstyleLength,
				FaceClass:             row.HairstyleFace,
				BangsClass:            row.HairstyleBangs,
			},
			SimulationResultLocator: row.SimulationImageURL,
		})
	}
	return out, nil
}

func (r *recommendationRepo) UpdateSimulationResult(dbc dbctx.Context, userID, requestID, recID int64, locator string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.RecommendationRow{}).
		Where("user_id = ? AND request_id = ? AND hair_rec_id = ?", userID, requestID, recID).
		Update("simulation_image_url", locator)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
