package route

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/routecraft/routecraft/internal/api"
	"github.com/routecraft/routecraft/internal/api/auth"
)

type Handler struct {
	routeService Service
	logger       *slog.Logger
}

func NewHandler(routeService Service, logger *slog.Logger) *Handler {
	return &Handler{routeService: routeService, logger: logger}
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "Publish", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/publish"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Publish"))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID in context", slog.String("userID", userIDStr))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid authentication context")
		return
	}
	itineraryID, err := uuid.Parse(chi.URLParam(r, "itineraryID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itineraryID URL parameter")
		return
	}

	route, err := h.routeService.Publish(ctx, userID, auth.IsAdmin(ctx), itineraryID)
	if err != nil {
		l.WarnContext(ctx, "Failed to publish itinerary", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, route)
}

// Get serves a published route. It sits on the public router: shared route
// links work without an account.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RouteHandler").Start(r.Context(), "Get", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/{routeID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Get"))

	routeID, err := uuid.Parse(chi.URLParam(r, "routeID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid routeID URL parameter")
		return
	}

	route, err := h.routeService.Get(ctx, routeID)
	if err != nil {
		l.WarnContext(ctx, "Failed to fetch route", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, route)
}
