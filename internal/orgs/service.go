package orgs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/clearvat/clearvat/internal/tenancy"
)

// MetricsCounter counts rows of a scoped entity for the current context.
type MetricsCounter interface {
	Count(ctx context.Context, op tenancy.Op) (int64, error)
}

// Service orchestrates organization operations.
type Service struct {
	repo    *Repository
	counter MetricsCounter
	group   singleflight.Group
}

// NewService constructs a Service.
func NewService(repo *Repository, counter MetricsCounter) *Service {
	return &Service{repo: repo, counter: counter}
}

// RegisterInput is the public signup payload.
type RegisterInput struct {
	Name       string
	VATNumber  string
	Plan       SubscriptionPlan
	AdminEmail string
	AdminName  string
	Password   string
}

// Register provisions a new organization with its first admin account and
// returns both identifiers.
func (s *Service) Register(ctx context.Context, in RegisterInput) (orgID, adminID string, err error) {
	if in.Plan == "" {
		in.Plan = PlanStarter
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	orgID = uuid.NewString()
	adminID = uuid.NewString()
	err = s.repo.Register(ctx, RegisterParams{
		OrgID:        orgID,
		Name:         strings.TrimSpace(in.Name),
		VATNumber:    strings.TrimSpace(in.VATNumber),
		Plan:         in.Plan,
		AdminID:      adminID,
		AdminEmail:   in.AdminEmail,
		AdminName:    in.AdminName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return "", "", err
	}
	return orgID, adminID, nil
}

// Current returns the caller's organization.
func (s *Service) Current(ctx context.Context) (*Organization, error) {
	org := tenancy.OrgFrom(ctx)
	if org == "" {
		return nil, tenancy.ErrNoOrgContext
	}
	return s.repo.Get(ctx, org)
}

// Update patches the caller's organization.
func (s *Service) Update(ctx context.Context, name, vatNumber string, plan SubscriptionPlan) (*Organization, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if name != "" {
		current.Name = name
	}
	if vatNumber != "" {
		current.VATNumber = vatNumber
	}
	if plan != "" {
		current.SubscriptionPlan = plan
	}
	if err := s.repo.Update(ctx, *current); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, current.ID)
}

// Metrics counts usage across scoped entities. Concurrent callers for the
// same organization share one computation.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	org := tenancy.OrgFrom(ctx)
	if org == "" {
		return Metrics{}, tenancy.ErrNoOrgContext
	}
	result, err, _ := s.group.Do(fmt.Sprintf("metrics:%s", org), func() (any, error) {
		var m Metrics
		var err error
		if m.Users, err = s.counter.Count(ctx, tenancy.Op{Entity: "users"}); err != nil {
			return Metrics{}, err
		}
		if m.Clients, err = s.counter.Count(ctx, tenancy.Op{Entity: "clients"}); err != nil {
			return Metrics{}, err
		}
		if m.Submissions, err = s.counter.Count(ctx, tenancy.Op{Entity: "submissions"}); err != nil {
			return Metrics{}, err
		}
		if m.Uploads, err = s.counter.Count(ctx, tenancy.Op{Entity: "uploads"}); err != nil {
			return Metrics{}, err
		}
		return m, nil
	})
	if err != nil {
		return Metrics{}, err
	}
	return result.(Metrics), nil
}
