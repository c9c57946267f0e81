package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/auditops/planner/internal/pipeline"
	"github.com/auditops/planner/internal/plan"
	"github.com/auditops/planner/internal/scoring"
	"github.com/auditops/planner/internal/store"
)

// MockStore implements store.Store for testing
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateRun(ctx context.Context, run *store.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockStore) GetRun(ctx context.Context, id uuid.UUID) (*store.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Run), args.Error(1)
}

func (m *MockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Run), args.Error(1)
}

func (m *MockStore) GetStats(ctx context.Context) (*store.RunStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RunStats), args.Error(1)
}

func (m *MockStore) Close() error { return nil }

// MockEvents implements events.Client for testing
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *MockEvents) Close() {
	// No-op for mock
}

func testPlanner() *pipeline.Planner {
	return pipeline.New(
		scoring.DefaultWeights(),
		scoring.DefaultFixedPolicy(),
		scoring.DefaultQuantilePolicy(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func planBody() []byte {
	req := pipeline.Request{
		BaseRows: []plan.Row{
			{"OIOS Code": "ENT-001", "Name of Auditable Audit": "District Hospital", "Department": "Health"},
			{"OIOS Code": "ENT-002", "Name of Auditable Audit": "Sub Centre", "Department": "Health"},
		},
		Parameters: []plan.ParameterRow{{
			Department: "Health", Percentage: 100,
			HighDays: 14, MediumDays: 10, LowDays: 7,
			HighPct: 40, MedPct: 40, LowPct: 20,
		}},
		GlobalMandays: 100,
	}
	body, _ := json.Marshal(req)
	return body
}

func TestPlanRun(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}
	handler := NewPlanHandler(testPlanner(), mockStore, mockEvents)

	mockStore.On("CreateRun", mock.Anything, mock.AnythingOfType("*store.Run")).Return(nil)
	mockEvents.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/plan", bytes.NewBuffer(planBody()))
	rr := httptest.NewRecorder()
	handler.Run(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var res pipeline.Result
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Len(t, res.Entities, 2)
	assert.NotNil(t, res.Report)
	assert.NotEqual(t, uuid.Nil, res.RunID)

	mockStore.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestPlanRunValidation(t *testing.T) {
	handler := NewPlanHandler(testPlanner(), nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{not json"},
		{"missing base rows", `{"global_mandays": 100}`},
		{"negative mandays", `{"base_rows": [{"OIOS Code": "X"}], "global_mandays": -1}`},
		{"unknown tier policy", `{"base_rows": [{"OIOS Code": "X"}], "tier_policy": "percentile"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/plan", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			handler.Run(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestPlanRunStoreFailureIsBestEffort(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}
	handler := NewPlanHandler(testPlanner(), mockStore, mockEvents)

	mockStore.On("CreateRun", mock.Anything, mock.Anything).Return(assert.AnError)
	mockEvents.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/plan", bytes.NewBuffer(planBody()))
	rr := httptest.NewRecorder()
	handler.Run(rr, req)

	// The computed plan still comes back even when history cannot be saved,
	// and the completed event still goes out.
	assert.Equal(t, http.StatusOK, rr.Code)
	var res pipeline.Result
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Len(t, res.Entities, 2)
	mockStore.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestPlanScoreDoesNotPersist(t *testing.T) {
	mockStore := &MockStore{}
	mockEvents := &MockEvents{}
	handler := NewPlanHandler(testPlanner(), mockStore, mockEvents)

	mockEvents.On("Publish", mock.AnythingOfType("string"), mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/score", bytes.NewBuffer(planBody()))
	rr := httptest.NewRecorder()
	handler.Score(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var res pipeline.Result
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, 0, res.Report.SelectedCount)

	mockStore.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
	mockEvents.AssertExpectations(t)
}

func TestGetRun(t *testing.T) {
	mockStore := &MockStore{}
	handler := NewRunsHandler(mockStore)

	id := uuid.New()
	mockStore.On("GetRun", mock.Anything, id).Return(&store.Run{ID: id, TierPolicy: "fixed"}, nil)

	req := httptest.NewRequest("GET", "/api/v1/runs/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var run store.Run
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&run))
	assert.Equal(t, id, run.ID)
	mockStore.AssertExpectations(t)
}

func TestGetRunNotFound(t *testing.T) {
	mockStore := &MockStore{}
	handler := NewRunsHandler(mockStore)

	id := uuid.New()
	mockStore.On("GetRun", mock.Anything, id).Return(nil, nil)

	req := httptest.NewRequest("GET", "/api/v1/runs/"+id.String(), nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetRunInvalidID(t *testing.T) {
	handler := NewRunsHandler(&MockStore{})

	req := httptest.NewRequest("GET", "/api/v1/runs/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRunsPassesFilter(t *testing.T) {
	mockStore := &MockStore{}
	handler := NewRunsHandler(mockStore)

	mockStore.On("ListRuns", mock.Anything, store.RunFilter{Limit: 5, Offset: 10}).Return([]*store.Run{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/runs?limit=5&offset=10", nil)
	rr := httptest.NewRecorder()
	handler.List(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
	mockStore.AssertExpectations(t)
}

func TestRunsWithoutStore(t *testing.T) {
	handler := NewRunsHandler(nil)

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest("GET", "/api/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAdminStatsRequiresToken(t *testing.T) {
	mockStore := &MockStore{}
	mockStore.On("GetStats", mock.Anything).Return(&store.RunStats{TotalRuns: 3}, nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(testPlanner(), mockStore, nil, "test-admin-token", logger)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer test-admin-token")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var stats store.RunStats
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 3, stats.TotalRuns)
}
