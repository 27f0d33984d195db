package uploads_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearvat/clearvat/internal/audit"
	"github.com/clearvat/clearvat/internal/shared"
	"github.com/clearvat/clearvat/internal/tenancy"
	"github.com/clearvat/clearvat/internal/uploads"
	_ "github.com/clearvat/clearvat/testing"
)

// memoryStore is a map-backed tenancy.Store for handler tests.
type memoryStore struct {
	mu   sync.Mutex
	rows map[string][]tenancy.Row
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[string][]tenancy.Row{}}
}

func matches(row tenancy.Row, filter map[string]any) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func (s *memoryStore) FindOne(_ context.Context, op tenancy.Op) (tenancy.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows[op.Entity] {
		if matches(row, op.Filter) {
			return row, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memoryStore) FindMany(_ context.Context, op tenancy.Op) ([]tenancy.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tenancy.Row
	for _, row := range s.rows[op.Entity] {
		if matches(row, op.Filter) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memoryStore) Count(ctx context.Context, op tenancy.Op) (int64, error) {
	rows, err := s.FindMany(ctx, op)
	return int64(len(rows)), err
}

func (s *memoryStore) Create(_ context.Context, op tenancy.Op) (tenancy.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := tenancy.Row{}
	for k, v := range op.Data {
		row[k] = v
	}
	s.rows[op.Entity] = append(s.rows[op.Entity], row)
	return row, nil
}

func (s *memoryStore) Update(_ context.Context, op tenancy.Op) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for _, row := range s.rows[op.Entity] {
		if matches(row, op.Filter) {
			for k, v := range op.Data {
				row[k] = v
			}
			affected++
		}
	}
	return affected, nil
}

func (s *memoryStore) Delete(_ context.Context, op tenancy.Op) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.rows[op.Entity][:0]
	var affected int64
	for _, row := range s.rows[op.Entity] {
		if matches(row, op.Filter) {
			affected++
			continue
		}
		kept = append(kept, row)
	}
	s.rows[op.Entity] = kept
	return affected, nil
}

func uploadsRouter(store *memoryStore) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scoped := tenancy.NewScopedStore(store)
	handler := uploads.NewHandler(logger, uploads.NewRepository(scoped), audit.NewRecorder(scoped))
	r := chi.NewRouter()
	r.Get("/uploads", handler.List)
	r.Post("/uploads", handler.Create)
	r.Get("/uploads/{id}", handler.Get)
	r.Delete("/uploads/{id}", handler.Delete)
	return r
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := tenancy.WithPrincipal(req.Context(), &tenancy.Principal{
		UserID: "user-1",
		Email:  "member@clearvat.local",
		Role:   tenancy.RoleTeamMember,
		OrgID:  "9f0d3c5e-0000-4000-8000-00000000000a",
	})
	return req.WithContext(ctx)
}

func TestCreateRegistersMetadataAndAudits(t *testing.T) {
	store := newMemoryStore()
	router := uploadsRouter(store)

	body, _ := json.Marshal(map[string]any{
		"file_name":    "sales-q1.csv",
		"storage_path": "org-a/sales-q1.csv",
		"content_type": "text/csv",
		"size_bytes":   2048,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/uploads", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created uploads.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "9f0d3c5e-0000-4000-8000-00000000000a", created.OrgID)
	assert.Equal(t, "user-1", created.UploaderID)
	assert.Equal(t, uploads.StatusPending, created.Status)

	require.Len(t, store.rows["audit_logs"], 1)
	entry := store.rows["audit_logs"][0]
	assert.Equal(t, "upload.registered", entry.String("action"))
	assert.Equal(t, created.OrgID, entry.String("org_id"))
}

func TestCreateRequiresPrincipal(t *testing.T) {
	router := uploadsRouter(newMemoryStore())

	body, _ := json.Marshal(map[string]any{
		"file_name":    "sales-q1.csv",
		"storage_path": "org-a/sales-q1.csv",
		"content_type": "text/csv",
		"size_bytes":   2048,
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/uploads", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRejectsIncompleteMetadata(t *testing.T) {
	router := uploadsRouter(newMemoryStore())

	body, _ := json.Marshal(map[string]any{"file_name": "sales-q1.csv"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/uploads", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownUploadReturns404(t *testing.T) {
	router := uploadsRouter(newMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/uploads/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAndDeleteStayWithinOrganization(t *testing.T) {
	store := newMemoryStore()
	store.rows["uploads"] = []tenancy.Row{
		{"id": "up-1", "org_id": "9f0d3c5e-0000-4000-8000-00000000000a", "file_name": "mine.csv"},
		{"id": "up-2", "org_id": "9f0d3c5e-0000-4000-8000-00000000000b", "file_name": "theirs.csv"},
	}
	router := uploadsRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/uploads", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Uploads []uploads.Upload `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Uploads, 1)
	assert.Equal(t, "up-1", listed.Uploads[0].ID)

	// Deleting another organization's upload must look like it never existed.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/uploads/up-2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, store.rows["uploads"], 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/uploads/up-1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, store.rows["uploads"], 1)
	assert.Equal(t, "up-2", store.rows["uploads"][0].String("id"))
}
