package clients

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
)

// importWorkers bounds concurrent inserts during bulk import.
const importWorkers = 4

var titleCaser = cases.Title(language.English)

// RepositoryPort defines data access methods for clients.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Client, int64, error)
	Get(ctx context.Context, id string) (Client, error)
	Create(ctx context.Context, c Client) (Client, error)
	Update(ctx context.Context, c Client) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// Service handles client business logic.
type Service struct {
	repo   RepositoryPort
	audit  *audit.Recorder
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: recorder, logger: logger}
}

// List returns one page of the organization's clients.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Client, shared.Pagination, error) {
	result, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return result, shared.NewPagination(f.Page, f.Per, int(total)), nil
}

// Get fetches one client.
func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a client under the caller's organization.
func (s *Service) Create(ctx context.Context, c Client) (Client, error) {
	principal := tenancy.PrincipalFrom(ctx)
	if principal == nil {
		return Client{}, tenancy.ErrNoOrgContext
	}
	c.ID = uuid.NewString()
	c.OrgID = principal.OrgID
	c.Name = normalizeName(c.Name)
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.TaxablePeriod == "" {
		c.TaxablePeriod = PeriodQuarterly
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Client{}, err
	}
	if err := s.audit.Record(ctx, "client.created", "clients", created.ID, map[string]any{"name": created.Name}); err != nil {
		s.logger.Warn("audit client create", slog.Any("error", err))
	}
	return created, nil
}

// Update replaces a client's mutable fields.
func (s *Service) Update(ctx context.Context, c Client) (Client, error) {
	c.Name = normalizeName(c.Name)
	affected, err := s.repo.Update(ctx, c)
	if err != nil {
		return Client{}, err
	}
	if affected == 0 {
		return Client{}, shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "client.updated", "clients", c.ID, nil); err != nil {
		s.logger.Warn("audit client update", slog.Any("error", err))
	}
	return s.repo.Get(ctx, c.ID)
}

// UpdateStatus changes the engagement status.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case StatusActive, StatusInactive, StatusSuspended:
	default:
		return errors.New("clients: unknown status")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "client.status_changed", "clients", id, map[string]any{"status": status}); err != nil {
		s.logger.Warn("audit status change", slog.Any("error", err))
	}
	return nil
}

// Delete removes a client.
func (s *Service) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return shared.ErrNotFound
	}
	if err := s.audit.Record(ctx, "client.deleted", "clients", id, nil); err != nil {
		s.logger.Warn("audit client delete", slog.Any("error", err))
	}
	return nil
}

// ImportRow is one record from a bulk import file.
type ImportRow struct {
	Name          string
	TIN           string
	VATNumber     string
	TaxablePeriod TaxablePeriod
	ContactEmail  string
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   []string `json:"failed,omitempty"`
}

// BulkImport inserts rows with bounded concurrency. Rows failing validation
// or persistence are reported by TIN without aborting the batch.
func (s *Service) BulkImport(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	principal := tenancy.PrincipalFrom(ctx)
	if principal == nil {
		return ImportResult{}, tenancy.ErrNoOrgContext
	}

	var mu sync.Mutex
	result := ImportResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importWorkers)
	for _, row := range rows {
		g.Go(func() error {
			if row.Name == "" || row.TIN == "" {
				mu.Lock()
				result.Failed = append(result.Failed, row.TIN)
				mu.Unlock()
				return nil
			}
			period := row.TaxablePeriod
			if period == "" {
				period = PeriodQuarterly
			}
			_, err := s.repo.Create(gctx, Client{
				ID:            uuid.NewString(),
				OrgID:         principal.OrgID,
				Name:          normalizeName(row.Name),
				TIN:           row.TIN,
				VATNumber:     row.VATNumber,
				TaxablePeriod: period,
				ContactEmail:  row.ContactEmail,
				Status:        StatusActive,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, row.TIN)
				return nil
			}
			result.Imported++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportResult{}, err
	}
	if err := s.audit.Record(ctx, "client.bulk_imported", "clients", principal.OrgID,
		map[string]any{"imported": result.Imported, "failed": len(result.Failed)}); err != nil {
		s.logger.Warn("audit bulk import", slog.Any("error", err))
	}
	return result, nil
}

func normalizeName(name string) string {
	return titleCaser.String(strings.TrimSpace(name))
}
