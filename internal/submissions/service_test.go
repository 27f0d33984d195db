package submissions

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
	_ "github.com/clearvat/clearvat/testing"
)

type mockRepository struct {
	submissions map[string]Submission
}

func newMockRepository() *mockRepository {
	return &mockRepository{submissions: make(map[string]Submission)}
}

func (m *mockRepository) List(ctx context.Context, clientID, period string) ([]Submission, error) {
	var out []Submission
	for _, s := range m.submissions {
		if clientID != "" && s.ClientID != clientID {
			continue
		}
		if period != "" && s.Period != period {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id string) (Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *mockRepository) Create(ctx context.Context, s Submission) (Submission, error) {
	m.submissions[s.ID] = s
	return s, nil
}

func (m *mockRepository) Update(ctx context.Context, s Submission) (int64, error) {
	if _, ok := m.submissions[s.ID]; !ok {
		return 0, nil
	}
	m.submissions[s.ID] = s
	return 1, nil
}

func (m *mockRepository) SetStage(ctx context.Context, id string, stage Stage, status string) (int64, error) {
	s, ok := m.submissions[id]
	if !ok {
		return 0, nil
	}
	s.Stage = stage
	s.Status = status
	m.submissions[id] = s
	return 1, nil
}

type auditSink struct {
	entries []tenancy.Op
}

func (a *auditSink) FindOne(ctx context.Context, op tenancy.Op) (tenancy.Row, error) {
	return nil, shared.ErrNotFound
}
func (a *auditSink) FindMany(ctx context.Context, op tenancy.Op) ([]tenancy.Row, error) {
	return nil, nil
}
func (a *auditSink) Count(ctx context.Context, op tenancy.Op) (int64, error) { return 0, nil }
func (a *auditSink) Create(ctx context.Context, op tenancy.Op) (tenancy.Row, error) {
	a.entries = append(a.entries, op)
	return tenancy.Row{}, nil
}
func (a *auditSink) Update(ctx context.Context, op tenancy.Op) (int64, error) { return 0, nil }
func (a *auditSink) Delete(ctx context.Context, op tenancy.Op) (int64, error) { return 0, nil }

func testContext() context.Context {
	return tenancy.WithPrincipal(context.Background(), &tenancy.Principal{
		UserID: "u-1",
		OrgID:  "9f0d3c5e-0000-4000-8000-00000000000a",
		Role:   tenancy.RoleTeamMember,
	})
}

func newTestService(t *testing.T) (*Service, *mockRepository, *auditSink) {
	t.Helper()
	repo := newMockRepository()
	sink := &auditSink{}
	service := NewService(repo, audit.NewRecorder(sink), slog.Default())
	return service, repo, sink
}

func TestCreateStartsAtDataCollection(t *testing.T) {
	service, _, sink := newTestService(t)

	created, err := service.Create(testContext(), "c-1", "2025-07", "MONTHLY")
	require.NoError(t, err)

	assert.Equal(t, StageDataCollection, created.Stage)
	assert.Equal(t, StatusDraft, created.Status)
	assert.Equal(t, "9f0d3c5e-0000-4000-8000-00000000000a", created.OrgID)
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "submission.created", sink.entries[0].Data["action"])
}

func TestCreateRequiresPrincipal(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Create(context.Background(), "c-1", "2025-07", "MONTHLY")
	assert.ErrorIs(t, err, tenancy.ErrNoOrgContext)
}

func TestAdvanceWalksAllStagesForward(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := testContext()

	created, err := service.Create(ctx, "c-1", "2025-07", "MONTHLY")
	require.NoError(t, err)

	expected := []struct {
		stage  Stage
		status string
	}{
		{StageDocumentPreparation, StatusDraft},
		{StageReview, StatusDraft},
		{StageIRDSubmission, StatusSubmitted},
		{StagePayment, StatusSubmitted},
		{StageAcknowledgment, StatusSubmitted},
		{StageFiling, StatusFiled},
		{StageClosed, StatusClosed},
	}
	for _, want := range expected {
		current, err := service.Advance(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, want.stage, current.Stage)
		assert.Equal(t, want.status, current.Status)
	}
}

func TestAdvanceClosedSubmissionFails(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := testContext()

	created, err := service.Create(ctx, "c-1", "2025-07", "MONTHLY")
	require.NoError(t, err)

	_, err = repo.SetStage(ctx, created.ID, StageClosed, StatusClosed)
	require.NoError(t, err)

	_, err = service.Advance(ctx, created.ID)
	assert.ErrorIs(t, err, ErrClosed)

	// Stage is unchanged after the refused advance.
	current, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StageClosed, current.Stage)
}

func TestAdvanceUnknownSubmission(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Advance(testContext(), "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRefusedWhenClosed(t *testing.T) {
	service, repo, _ := newTestService(t)
	ctx := testContext()

	created, err := service.Create(ctx, "c-1", "2025-07", "MONTHLY")
	require.NoError(t, err)
	_, err = repo.SetStage(ctx, created.ID, StageClosed, StatusClosed)
	require.NoError(t, err)

	_, err = service.Update(ctx, created.ID, "2025-08", "")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestStatusForStage(t *testing.T) {
	assert.Equal(t, StatusDraft, statusForStage(StageReview))
	assert.Equal(t, StatusSubmitted, statusForStage(StageIRDSubmission))
	assert.Equal(t, StatusFiled, statusForStage(StageFiling))
	assert.Equal(t, StatusClosed, statusForStage(StageClosed))
}
