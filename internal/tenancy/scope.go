package tenancy

import (
	"context"
	"errors"
)

// OrgColumn is the tenant discriminator column on every scoped table.
const OrgColumn = "org_id"

// ErrNoOrgContext is returned when a scoped operation runs without an
// organization id in context. The operation is refused rather than executed
// unscoped against a multi-tenant table.
var ErrNoOrgContext = errors.New("tenancy: no organization in context")

// Action identifies the kind of data-access operation.
type Action string

const (
	ActionCreate     Action = "create"
	ActionCreateMany Action = "createMany"
	ActionFindOne    Action = "findOne"
	ActionFindMany   Action = "findMany"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionCount      Action = "count"
)

// Op describes one proposed data-access operation.
type Op struct {
	Entity  string
	Action  Action
	Filter  map[string]any
	Data    map[string]any
	OrderBy string
	Limit   int
	Offset  int
}

// scopedEntities lists the tables that carry an org_id discriminator and must
// never be read or written without one.
var scopedEntities = map[string]struct{}{
	"users":             {},
	"clients":           {},
	"brandings":         {},
	"uploads":           {},
	"mapping_templates": {},
	"submissions":       {},
	"audit_logs":        {},
}

// ScopedEntity reports whether the entity requires an organization predicate.
func ScopedEntity(entity string) bool {
	_, ok := scopedEntities[entity]
	return ok
}

// ScopedStore decorates a Store, guaranteeing every read, update, delete and
// count against a scoped entity carries the caller's organization predicate.
// Creates are deliberately not auto-populated: callers supply org_id in the
// payload and the table's NOT NULL constraint rejects omissions.
type ScopedStore struct {
	next Store
}

// NewScopedStore wraps the given store with organization scoping.
func NewScopedStore(next Store) *ScopedStore {
	return &ScopedStore{next: next}
}

// applyScope returns the operation with the organization predicate injected
// where required. An explicit org_id already present in the filter wins and
// is never overwritten.
func (s *ScopedStore) applyScope(ctx context.Context, op Op) (Op, error) {
	if !ScopedEntity(op.Entity) {
		return op, nil
	}
	if op.Action == ActionCreate || op.Action == ActionCreateMany {
		return op, nil
	}
	if _, ok := op.Filter[OrgColumn]; ok {
		return op, nil
	}
	org := OrgFrom(ctx)
	if org == "" {
		return Op{}, ErrNoOrgContext
	}
	filter := make(map[string]any, len(op.Filter)+1)
	for k, v := range op.Filter {
		filter[k] = v
	}
	filter[OrgColumn] = org
	op.Filter = filter
	return op, nil
}

func (s *ScopedStore) FindOne(ctx context.Context, op Op) (Row, error) {
	op.Action = ActionFindOne
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return nil, err
	}
	return s.next.FindOne(ctx, scoped)
}

func (s *ScopedStore) FindMany(ctx context.Context, op Op) ([]Row, error) {
	op.Action = ActionFindMany
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return nil, err
	}
	return s.next.FindMany(ctx, scoped)
}

func (s *ScopedStore) Count(ctx context.Context, op Op) (int64, error) {
	op.Action = ActionCount
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return 0, err
	}
	return s.next.Count(ctx, scoped)
}

func (s *ScopedStore) Create(ctx context.Context, op Op) (Row, error) {
	op.Action = ActionCreate
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return nil, err
	}
	return s.next.Create(ctx, scoped)
}

func (s *ScopedStore) Update(ctx context.Context, op Op) (int64, error) {
	op.Action = ActionUpdate
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return 0, err
	}
	return s.next.Update(ctx, scoped)
}

func (s *ScopedStore) Delete(ctx context.Context, op Op) (int64, error) {
	op.Action = ActionDelete
	scoped, err := s.applyScope(ctx, op)
	if err != nil {
		return 0, err
	}
	return s.next.Delete(ctx, scoped)
}

var _ Store = (*ScopedStore)(nil)
