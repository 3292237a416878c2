package itinerary

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/routecraft/routecraft/internal/api/auth"
	"github.com/routecraft/routecraft/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Generate(ctx context.Context, userID uuid.UUID, req types.GenerateItineraryRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, userID, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) Get(ctx context.Context, viewerID uuid.UUID, isAdmin bool, id uuid.UUID) (*types.Itinerary, error) {
	args := m.Called(ctx, viewerID, isAdmin, id)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItinerariesResponse, error) {
	args := m.Called(ctx, userID, page, pageSize)
	resp, _ := args.Get(0).(*types.PaginatedItinerariesResponse)
	return resp, args.Error(1)
}

func (m *MockService) ReorderStops(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ReorderStopsRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, id, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) MoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.MoveStopRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, id, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) AddStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.AddStopRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, id, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) RemoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id, stopID uuid.UUID, req types.RemoveStopRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, id, stopID, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) Modify(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ModifyItineraryRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, id, req)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

func (m *MockService) Copy(ctx context.Context, actorID uuid.UUID, isAdmin bool, sourceID uuid.UUID) (*types.Itinerary, error) {
	args := m.Called(ctx, actorID, isAdmin, sourceID)
	it, _ := args.Get(0).(*types.Itinerary)
	return it, args.Error(1)
}

var _ Service = (*MockService)(nil)

func setupHandlerTest() (*Handler, *MockService) {
	mockService := new(MockService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(mockService, logger), mockService
}

// authenticatedRequest builds a request carrying the caller identity and the
// chi URL parameters the handler reads.
func authenticatedRequest(method, target string, body string, userID uuid.UUID, params map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for name, value := range params {
		rctx.URLParams.Add(name, value)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, auth.UserIDKey, userID.String())
	return r.WithContext(ctx)
}

func TestHandler_AddStop(t *testing.T) {
	owner := uuid.New()

	t.Run("created stop responds with 201", func(t *testing.T) {
		handler, mockService := setupHandlerTest()
		it := testItinerary(owner)

		req := types.AddStopRequest{DayNumber: 1, PlaceName: "Basilica Cistern"}
		mockService.On("AddStop", mock.Anything, owner, false, it.ID, req).Return(it, nil).Once()

		w := httptest.NewRecorder()
		r := authenticatedRequest(http.MethodPost, "/api/v1/itineraries/"+it.ID.String()+"/stops",
			`{"day_number": 1, "place_name": "Basilica Cistern"}`,
			owner, map[string]string{"itineraryID": it.ID.String()})
		handler.AddStop(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), it.ID.String())
		mockService.AssertExpectations(t)
	})

	t.Run("service error maps to status", func(t *testing.T) {
		handler, mockService := setupHandlerTest()
		id := uuid.New()

		mockService.On("AddStop", mock.Anything, owner, false, id, mock.Anything).
			Return(nil, types.ErrNotFound).Once()

		w := httptest.NewRecorder()
		r := authenticatedRequest(http.MethodPost, "/api/v1/itineraries/"+id.String()+"/stops",
			`{"day_number": 9, "place_name": "Basilica Cistern"}`,
			owner, map[string]string{"itineraryID": id.String()})
		handler.AddStop(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing caller identity", func(t *testing.T) {
		handler, mockService := setupHandlerTest()
		id := uuid.New()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/itineraries/"+id.String()+"/stops",
			strings.NewReader(`{"day_number": 1, "place_name": "Basilica Cistern"}`))
		r.Header.Set("Content-Type", "application/json")
		handler.AddStop(w, r)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "AddStop", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
