package repos

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.RequestRow{},
		&domain.FaceAssessmentRow{},
		&domain.HairstyleRow{},
		&domain.RecommendationRow{},
		&domain.SimulationRun{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func repoLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func dbc() dbctx.Context { return dbctx.Context{Ctx: context.Background()} }

func strPtr(s string) *string { return &s }

func TestGetProfileNormalizesStoredValues(t *testing.T) {
	db := testDB(t)
	repo := NewRequestRepo(db, repoLogger(t))

	row := domain.RequestRow{
		UserID:       7,
		RequestID:    11,
		UserImageURL: "gs://uploads/u7/r11.jpg",
		HairLength:   "미디움",
		Sex:          "여성",
		HasBangs:     "유",
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	p, err := repo.GetProfile(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p == nil {
		t.Fatalf("profile missing")
	}
	if p.SourceImageLocator != "gs://uploads/u7/r11.jpg" {
		t.Errorf("locator = %q", p.SourceImageLocator)
	}
	if p.Sex != domain.SexFemale || p.HairLength != domain.HairLengthMedium || p.HasBangs != domain.BangsYes {
		t.Errorf("normalized profile = %+v", p)
	}
}

func TestGetProfileMissing(t *testing.T) {
	repo := NewRequestRepo(testDB(t), repoLogger(t))
	p, err := repo.GetProfile(dbc(), 1, 2)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil profile, got %+v", p)
	}
}

func TestGetLatestFaceTypePicksNewest(t *testing.T) {
	db := testDB(t)
	repo := NewAssessmentRepo(db, repoLogger(t))

	older := domain.FaceAssessmentRow{RequestID: 5, FaceType: "둥근형", CreatedAt: time.Now().Add(-time.Hour)}
	newer := domain.FaceAssessmentRow{RequestID: 5, FaceType: "계란형", CreatedAt: time.Now()}
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	face, err := repo.GetLatestFaceType(dbc(), 5)
	if err != nil {
		t.Fatalf("GetLatestFaceType: %v", err)
	}
	if face != domain.FaceOval {
		t.Fatalf("face = %q, want oval", face)
	}
}

func TestGetLatestFaceTypeMissing(t *testing.T) {
	repo := NewAssessmentRepo(testDB(t), repoLogger(t))
	face, err := repo.GetLatestFaceType(dbc(), 999)
	if err != nil {
		t.Fatalf("GetLatestFaceType: %v", err)
	}
	if face != "" {
		t.Fatalf("face = %q, want empty", face)
	}
}

func seedCandidates(t *testing.T, db *gorm.DB) {
	t.Helper()
	styles := []domain.HairstyleRow{
		{HairID: 1, HairstyleName: "Layered Cut", HairstyleImageURL: "gs://catalog/1.jpg", HairstyleLength: strPtr("L"), HairstyleFace: strPtr("S"), HairstyleBangs: strPtr("Y")},
		{HairID: 2, HairstyleName: "Two Block", HairstyleImageURL: "gs://catalog/2.jpg", HairstyleFace: strPtr("R")},
	}
	recs := []domain.RecommendationRow{
		{UserID: 7, RequestID: 11, HairRecID: 101, HairID: 2},
		{UserID: 7, RequestID: 11, HairRecID: 100, HairID: 1},
		{UserID: 7, RequestID: 99, HairRecID: 300, HairID: 1},
	}
	if err := db.Create(&styles).Error; err != nil {
		t.Fatalf("seed styles: %v", err)
	}
	if err := db.Create(&recs).Error; err != nil {
		t.Fatalf("seed recs: %v", err)
	}
}

func TestGetCandidatesJoinsAndOrders(t *testing.T) {
	db := testDB(t)
	seedCandidates(t, db)
	repo := NewRecommendationRepo(db, repoLogger(t))

	got, err := repo.GetCandidates(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("GetCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candidates = %d, want 2", len(got))
	}
	if got[0].RecID != 100 || got[1].RecID != 101 {
		t.Fatalf("order = %d,%d, want 100,101", got[0].RecID, got[1].RecID)
	}
	if got[0].Entry.Name != "Layered Cut" || got[0].Entry.ReferenceImageLocator != "gs://catalog/1.jpg" {
		t.Errorf("entry = %+v", got[0].Entry)
	}
	if got[0].Entry.LengthClass == nil || *got[0].Entry.LengthClass != "L" {
		t.Errorf("length class = %v", got[0].Entry.LengthClass)
	}
	if got[1].Entry.LengthClass != nil {
		t.Errorf("expected nil length class for hair 2")
	}
}

func TestUpdateSimulationResult(t *testing.T) {
	db := testDB(t)
	seedCandidates(t, db)
	repo := NewRecommendationRepo(db, repoLogger(t))

	ok, err := repo.UpdateSimulationResult(dbc(), 7, 11, 100, "https://cdn/results/abc.jpg")
	if err != nil {
		t.Fatalf("UpdateSimulationResult: %v", err)
	}
	if !ok {
		t.Fatalf("expected a matched row")
	}

	var row domain.RecommendationRow
	if err := db.Where("hair_rec_id = ?", 100).Take(&row).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.SimulationImageURL == nil || *row.SimulationImageURL != "https://cdn/results/abc.jpg" {
		t.Fatalf("stored url = %v", row.SimulationImageURL)
	}

	ok, err = repo.UpdateSimulationResult(dbc(), 7, 11, 9999, "https://cdn/results/xyz.jpg")
	if err != nil {
		t.Fatalf("UpdateSimulationResult: %v", err)
	}
	if ok {
		t.Fatalf("expected zero matched rows for unknown slot")
	}
}

func TestSimulationRunLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewSimulationRunRepo(db, repoLogger(t))

	run, err := repo.Create(dbc(), &domain.SimulationRun{UserID: 7, RequestID: 11})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.Status != domain.RunStatusQueued {
		t.Fatalf("status = %q", run.Status)
	}

	active, err := repo.HasActive(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if !active {
		t.Fatalf("expected active run")
	}

	if err := repo.MarkRunning(dbc(), run.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	if err := repo.MarkSucceeded(dbc(), run.ID, []byte(`{"recommendations":[]}`)); err != nil {
		t.Fatalf("MarkSucceeded: %v", err)
	}

	latest, err := repo.GetLatest(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest == nil || latest.ID != run.ID {
		t.Fatalf("latest = %+v", latest)
	}
	if latest.Status != domain.RunStatusSucceeded {
		t.Fatalf("status = %q", latest.Status)
	}

	active, err = repo.HasActive(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if active {
		t.Fatalf("succeeded run still counted active")
	}
}

func TestHasActiveIgnoresStaleRows(t *testing.T) {
	db := testDB(t)
	repo := NewSimulationRunRepo(db, repoLogger(t))

	run, err := repo.Create(dbc(), &domain.SimulationRun{UserID: 7, RequestID: 11})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.MarkRunning(dbc(), run.ID); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}

	// A crash mid-run leaves the row in running forever; once it ages past
	// the admission window it must stop blocking new submissions.
	old := time.Now().Add(-time.Hour)
	if err := db.Model(&domain.SimulationRun{}).
		Where("id = ?", run.ID).
		UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("age row: %v", err)
	}

	active, err := repo.HasActive(dbc(), 7, 11)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if active {
		t.Fatalf("stale running row still blocks admission")
	}
}

func TestSimulationRunMarkFailed(t *testing.T) {
	db := testDB(t)
	repo := NewSimulationRunRepo(db, repoLogger(t))

	run, err := repo.Create(dbc(), &domain.SimulationRun{UserID: 1, RequestID: 2})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.MarkFailed(dbc(), run.ID, "inference failed: device error"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	latest, err := repo.GetLatest(dbc(), 1, 2)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.Status != domain.RunStatusFailed || latest.Error == "" {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestGetLatestMissing(t *testing.T) {
	repo := NewSimulationRunRepo(testDB(t), repoLogger(t))
	latest, err := repo.GetLatest(dbc(), 42, 42)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil, got %+v", latest)
	}
}
