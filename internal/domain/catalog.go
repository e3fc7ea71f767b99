package domain

import "time"

// CatalogEntry is one row of the static hairstyle reference data. The class
// fields mirror the catalog schema: LengthClass in {S, M, L} or nil,
// FaceClass in {R, S} or nil, BangsClass in {Y, N} or nil.
type CatalogEntry struct {
	HairID                int64
	Name                  string
	ReferenceImageLocator string
	LengthClass           *string
	FaceClass             *string
	BangsClass            *string
}

// Candidate is the unit of work for the orchestrator: one recommendation
// slot joined to its catalog entry. Created upstream; this service only ever
// updates SimulationResultLocator.
type Candidate struct {
	UserID                  int64
	RequestID               int64
	RecID                   int64
	Entry                   CatalogEntry
	SimulationResultLocator *string
}

// Row models for the upstream product schema. AutoMigrate never touches
// these tables; the main API owns them. They exist so the gateway can read
// and update through gorm with the exact column names.

type RequestRow struct {
	UserID       int64  `gorm:"column:user_id"`
	RequestID    int64  `gorm:"column:request_id"`
	UserImageURL string `gorm:"column:user_image_url"`
	HairLength   string `gorm:"column:hair_length"`
	Sex          string `gorm:"column:sex"`
	HasBangs     string `gorm:"column:has_bangs"`
}

func (RequestRow) TableName() string { return "request_table" }

type FaceAssessmentRow struct {
	RequestID int64     `gorm:"column:request_id"`
	FaceType  string    `gorm:"column:face_type"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (FaceAssessmentRow) TableName() string { return "result_table" }

type HairstyleRow struct {
	HairID            int64   `gorm:"column:hair_id;primaryKey"`
	HairstyleName     string  `gorm:"column:hairstyle_name"`
	HairstyleImageURL string  `gorm:"column:hairstyle_image_url"`
	HairstyleLength   *string `gorm:"column:hairstyle_length"`
	HairstyleFace     *string `gorm:"column:hairstyle_face"`
	HairstyleBangs    *string `gorm:"column:hairstyle_bangs"`
}

func (HairstyleRow) TableName() string { return "hairstyle_table" }

type RecommendationRow struct {
	UserID             int64   `gorm:"column:user_id"`
	RequestID          int64   `gorm:"column:request_id"`
	HairRecID          int64   `gorm:"column:hair_rec_id;primaryKey"`
	HairID             int64   `gorm:"column:hair_id"`
	SimulationImageURL *string `gorm:"column:simulation_image_url"`
}

func (RecommendationRow) TableName() string { return "hair_recommendation_table" }
