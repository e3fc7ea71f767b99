package services

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/yungbote/hairsim-backend/internal/clients/redis"
	"github.com/yungbote/hairsim-backend/internal/data/repos"
	"github.com/yungbote/hairsim-backend/internal/domain"
	"github.com/yungbote/hairsim-backend/internal/engine"
	"github.com/yungbote/hairsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
	"github.com/yungbote/hairsim-backend/internal/resolver"
	"github.com/yungbote/hairsim-backend/internal/simerr"
)

const (
	// FailurePolicyAbort stops the run on the first candidate failure.
	FailurePolicyAbort = "abort"
	// FailurePolicyIsolate records the failure and keeps going with the
	// remaining candidates.
	FailurePolicyIsolate = "isolate"

	// EmptyCandidatePolicyFail treats an empty eligible set as a failed run.
	EmptyCandidatePolicyFail = "fail"
	// EmptyCandidatePolicySucceed completes with an empty aggregate instead.
	EmptyCandidatePolicySucceed = "succeed"
)

// ImageLoader is the slice of the imaging package the orchestrator needs.
type ImageLoader interface {
	Load(ctx context.Context, locator string, removeBackground bool) (image.Image, error)
}

// TransferSession is the slice of the engine session the orchestrator needs.
type TransferSession interface {
	Transfer(ctx context.Context, source, reference image.Image, params engine.Params) (image.Image, image.Image, error)
}

type SimulationConfig struct {
	FailurePolicy        string
	EmptyCandidatePolicy string
	// RemoveBackground runs matting on the user photo before inference.
	RemoveBackground bool
	Params           engine.Params
}

// SimulationService drives one orchestration run end to end: resolve the
// eligible candidates, synthesize each one on the exclusive engine, publish
// the artifacts, persist the locators, and notify the main API once.
type SimulationService interface {
	Run(ctx context.Context, userID, requestID int64) (*domain.ResultAggregate, error)
	GetLatestRun(ctx context.Context, userID, requestID int64) (*domain.SimulationRun, error)
}

type simulationService struct {
	log         *logger.Logger
	cfg         SimulationConfig
	requests    repos.RequestRepo
	assessments repos.AssessmentRepo
	recs        repos.RecommendationRepo
	runs        repos.SimulationRunRepo
	loader      ImageLoader
	session     TransferSession
	publisher   Publisher
	notifier    ResultNotifier
	guard       redis.RunGuard
}

func NewSimulationService(
	log *logger.Logger,
	cfg SimulationConfig,
	requests repos.RequestRepo,
	assessments repos.AssessmentRepo,
	recs repos.RecommendationRepo,
	runs repos.SimulationRunRepo,
	loader ImageLoader,
	session TransferSession,
	publisher Publisher,
	notifier ResultNotifier,
	guard redis.RunGuard,
) SimulationService {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailurePolicyAbort
	}
	if cfg.EmptyCandidatePolicy == "" {
		cfg.EmptyCandidatePolicy = EmptyCandidatePolicyFail
	}
	if guard == nil {
		guard = redis.NoopGuard{}
	}
	return &simulationService{
		log:         log.With("service", "SimulationService"),
		cfg:         cfg,
		requests:    requests,
		assessments: assessments,
		recs:        recs,
		runs:        runs,
		loader:      loader,
		session:     session,
		publisher:   publisher,
		notifier:    notifier,
		guard:       guard,
	}
}

func (s *simulationService) GetLatestRun(ctx context.Context, userID, requestID int64) (*domain.SimulationRun, error) {
	run, err := s.runs.GetLatest(dbctx.Context{Ctx: ctx}, userID, requestID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, simerr.ErrNotFound
	}
	return run, nil
}

func (s *simulationService) Run(ctx context.Context, userID, requestID int64) (*domain.ResultAggregate, error) {
	log := s.log.With("user_id", userID, "request_id", requestID)
	dbc := dbctx.Context{Ctx: ctx}

	ok, err := s.guard.Acquire(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, simerr.ErrRunInFlight
	}
	defer func() {
		if err := s.guard.Release(context.Background(), userID, requestID); err != nil {
			log.Warn("Run guard release failed", "error", err)
		}
	}()

	active, err := s.runs.HasActive(dbc, userID, requestID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, simerr.ErrRunInFlight
	}

	run, err := s.runs.Create(dbc, &domain.SimulationRun{UserID: userID, RequestID: requestID})
	if err != nil {
		return nil, err
	}
	if err := s.runs.MarkRunning(dbc, run.ID); err != nil {
		log.Warn("Failed to mark run running", "error", err)
	}

	agg, err := s.execute(ctx, log, userID, requestID)
	if err != nil {
		if mErr := s.runs.MarkFailed(dbc, run.ID, err.Error()); mErr != nil {
			log.Warn("Failed to mark run failed", "error", mErr)
		}
		return nil, err
	}

	raw, mErr := json.Marshal(agg)
	if mErr != nil {
		raw = []byte("{}")
	}
	if mErr := s.runs.MarkSucceeded(dbc, run.ID, raw); mErr != nil {
		log.Warn("Failed to mark run succeeded", "error", mErr)
	}

	// Notification is strictly after persistence and strictly once per run.
	// A delivery failure never fails the run.
	if err := s.notifier.NotifyResult(ctx, *agg); err != nil {
		log.Warn("Result notification failed", "error", err)
	}

	return agg, nil
}

func (s *simulationService) execute(ctx context.Context, log *logger.Logger, userID, requestID int64) (*domain.ResultAggregate, error) {
	dbc := dbctx.Context{Ctx: ctx}

	profile, err := s.requests.GetProfile(dbc, userID, requestID)
	if err != nil {
		return nil, err
	}
	if profile == nil || profile.SourceImageLocator == "" {
		return nil, simerr.ErrNotFound
	}

	face, err := s.assessments.GetLatestFaceType(dbc, requestID)
	if err != nil {
		return nil, err
	}
	if face == "" {
		return nil, simerr.ErrNotFound
	}

	candidates, err := s.recs.GetCandidates(dbc, userID, requestID)
	if err != nil {
		return nil, err
	}
	eligible := resolver.Resolve(*profile, face, candidates)
	log.Info("Candidates resolved", "total", len(candidates), "eligible", len(eligible))

	agg := &domain.ResultAggregate{
		UserID:    userID,
		RequestID: requestID,
		Results:   []domain.AggregateItem{},
	}
	if len(eligible) == 0 {
		if s.cfg.EmptyCandidatePolicy == EmptyCandidatePolicySucceed {
			return agg, nil
		}
		return nil, simerr.ErrNoCandidates
	}

	// The source image loads once per run; a failure here fails the run
	// outright regardless of the failure policy, since no candidate can
	// proceed without it.
	source, err := s.loader.Load(ctx, profile.SourceImageLocator, s.cfg.RemoveBackground)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, cand := range eligible {
		outcome := s.processCandidate(ctx, log, source, cand)
		if outcome.Status == domain.OutcomeFailed {
			if s.cfg.FailurePolicy == FailurePolicyAbort {
				return nil, outcome.err
			}
			lastErr = outcome.err
			agg.Failures = append(agg.Failures, domain.FailureItem{
				RecID:  cand.RecID,
				HairID: cand.Entry.HairID,
				Name:   cand.Entry.Name,
				Reason: outcome.Reason,
			})
			log.Warn("Candidate failed, continuing",
				"hair_rec_id", cand.RecID, "reason", outcome.Reason)
			continue
		}
		agg.Results = append(agg.Results, domain.AggregateItem{
			RecID:         cand.RecID,
			HairID:        cand.Entry.HairID,
			Name:          cand.Entry.Name,
			ResultLocator: outcome.ResultLocator,
		})
	}

	// Isolation tolerates partial loss, not total loss: a run where every
	// candidate failed is a failed run and must not notify.
	if len(agg.Results) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return agg, nil
}

type candidateOutcome struct {
	domain.SimulationOutcome
	err error
}

func (s *simulationService) processCandidate(ctx context.Context, log *logger.Logger, source image.Image, cand domain.Candidate) candidateOutcome {
	log = log.With("hair_rec_id", cand.RecID, "hair_id", cand.Entry.HairID)
	start := time.Now()

	fail := func(err error) candidateOutcome {
		return candidateOutcome{
			SimulationOutcome: domain.SimulationOutcome{
				Candidate: cand,
				Status:    domain.OutcomeFailed,
				Reason:    err.Error(),
			},
			err: err,
		}
	}

	reference, err := s.loader.Load(ctx, cand.Entry.ReferenceImageLocator, false)
	if err != nil {
		return fail(err)
	}

	_, result, err := s.session.Transfer(ctx, source, reference, s.cfg.Params)
	if err != nil {
		return fail(err)
	}

	locator, err := s.publisher.PublishResult(ctx, cand.RequestID, result)
	if err != nil {
		return fail(err)
	}

	// Persistence failures do not fail the candidate: the artifact exists and
	// the aggregate carries its locator either way.
	matched, err := s.recs.UpdateSimulationResult(dbctx.Context{Ctx: ctx}, cand.UserID, cand.RequestID, cand.RecID, locator)
	if err != nil {
		log.Warn("Result persistence failed", "error", &simerr.PersistenceError{Err: err})
	} else if !matched {
		log.Warn("Recommendation slot vanished before result write", "locator", locator)
	}

	log.Info("Candidate simulated", "duration_ms", time.Since(start).Milliseconds(), "locator", locator)
	return candidateOutcome{
		SimulationOutcome: domain.SimulationOutcome{
			Candidate:     cand,
			Status:        domain.OutcomeSucceeded,
			ResultLocator: locator,
		},
	}
}
