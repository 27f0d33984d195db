package submissions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// ErrClosed indicates the submission has reached the terminal stage.
var ErrClosed = errors.New("submissions: submission is closed")

// RepositoryPort defines data access methods for submissions.
type RepositoryPort interface {
	List(ctx context.Context, clientID, period string) ([]Submission, error)
	Get(ctx context.Context, id string) (Submission, error)
	Create(ctx context.Context, s Submission) (Submission, error)
	Update(ctx context.Context, s Submission) (int64, error)
	SetStage(ctx context.Context, id string, stage Stage, status string) (int64, error)
}

// Service handles the submission lifecycle.
type Service struct {
	repo   RepositoryPort
	audit  *audit.Recorder
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: recorder, logger: logger}
}

// List returns submissions for the organization.
func (s *Service) List(ctx context.Context, clientID, period string) ([]Submission, error) {
	return s.repo.List(ctx, clientID, period)
}

// Get fetches one submission.
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	return s.repo.Get(ctx, id)
}

// Create opens a new submission at the data-collection stage.
func (s *Service) Create(ctx context.Context, clientID, period string, schedule ScheduleType) (Submission, error) {
	principal := tenancy.PrincipalFrom(ctx)
	if principal == nil {
		return Submission{}, tenancy.ErrNoOrgContext
	}
	created, err := s.repo.Create(ctx, Submission{
		ID:           uuid.NewString(),
		OrgID:        principal.OrgID,
		ClientID:     clientID,
		Period:       period,
		ScheduleType: schedule,
		Stage:        StageDataCollection,
		Status:       StatusDraft,
	})
	if err != nil {
		return Submission{}, err
	}
	if err := s.audit.Record(ctx, "submission.created", "submissions", created.ID,
		map[string]any{"client_id": clientID, "period": period}); err != nil {
		s.logger.Warn("audit submission create", slog.Any("error", err))
	}
	return created, nil
}

// Update patches period and schedule while the submission is still open.
func (s *Service) Update(ctx context.Context, id, period string, schedule ScheduleType) (Submission, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if current.Stage == StageClosed {
		return Submission{}, ErrClosed
	}
	if period != "" {
		current.Period = period
	}
	if schedule != "" {
		current.ScheduleType = schedule
	}
	affected, err := s.repo.Update(ctx, current)
	if err != nil {
		return Submission{}, err
	}
	if affected == 0 {
		return Submission{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// statusForStage derives the coarse status from the workflow position.
func statusForStage(stage Stage) string {
	switch {
	case stage >= StageClosed:
		return StatusClosed
	case stage >= StageFiling:
		return StatusFiled
	case stage >= StageIRDSubmission:
		return StatusSubmitted
	default:
		return StatusDraft
	}
}

// Advance moves the submission one stage forward. Stages never move
// backwards and a closed submission stays closed.
func (s *Service) Advance(ctx context.Context, id string) (Submission, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if current.Stage >= StageClosed {
		return Submission{}, ErrClosed
	}
	next := current.Stage + 1
	affected, err := s.repo.SetStage(ctx, id, next, statusForStage(next))
	if err != nil {
		return Submission{}, err
	}
	if affected == 0 {
		return Submission{}, shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "submission.advanced", "submissions", id,
		map[string]any{"stage": int(next)}); err != nil {
		s.logger.Warn("audit submission advance", slog.Any("error", err))
	}
	return s.repo.Get(ctx, id)
}
