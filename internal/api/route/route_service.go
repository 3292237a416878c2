package route

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/routecraft/routecraft/internal/api/itinerary"
	"github.com/routecraft/routecraft/internal/types"
)

// Service turns finished itineraries into publicly fetchable routes.
type Service interface {
	Publish(ctx context.Context, actorID uuid.UUID, isAdmin bool, itineraryID uuid.UUID) (*types.Route, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Route, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	routes      Repository
	itineraries itinerary.Repository
}

var _ Service = (*ServiceImpl)(nil)

func NewService(routes Repository, itineraries itinerary.Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		routes:      routes,
		itineraries: itineraries,
	}
}

func (s *ServiceImpl) Publish(ctx context.Context, actorID uuid.UUID, isAdmin bool, itineraryID uuid.UUID) (*types.Route, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Publish", trace.WithAttributes(
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Publish"), slog.String("itineraryID", itineraryID.String()))

	it, err := s.itineraries.GetByID(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	if it.UserID != actorID && !isAdmin {
		return nil, fmt.Errorf("itinerary %s belongs to another user: %w", itineraryID, types.ErrForbidden)
	}
	if it.TotalStops() == 0 {
		return nil, fmt.Errorf("itinerary %s has no stops to publish: %w", itineraryID, types.ErrInvalidArgument)
	}

	route := &types.Route{
		ID:          uuid.New(),
		ItineraryID: it.ID,
		UserID:      it.UserID,
		Title:       it.Title,
		Summary:     it.Summary,
		Tags:        append([]string{}, it.Tags...),
		Waypoints:   append([]types.Waypoint{}, it.WaypointList...),
	}
	if err := s.routes.Upsert(ctx, route); err != nil {
		l.ErrorContext(ctx, "failed to store route", slog.Any("error", err))
		return nil, err
	}

	it.Status = types.ItineraryStatusFinished
	it.RouteID = &route.ID
	if err := s.itineraries.Save(ctx, it); err != nil {
		l.ErrorContext(ctx, "failed to link route back to itinerary", slog.Any("error", err))
		return nil, err
	}
	l.InfoContext(ctx, "itinerary published",
		slog.String("routeID", route.ID.String()),
		slog.Int("waypoints", len(route.Waypoints)))
	return route, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*types.Route, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "Get")
	defer span.End()
	return s.routes.GetByID(ctx, id)
}
