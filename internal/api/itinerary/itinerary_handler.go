package itinerary

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/routecraft/routecraft/internal/api"
	"github.com/routecraft/routecraft/internal/api/auth"
	"github.com/routecraft/routecraft/internal/types"
)

type Handler struct {
	itineraryService Service
	logger           *slog.Logger
}

func NewHandler(itineraryService Service, logger *slog.Logger) *Handler {
	return &Handler{itineraryService: itineraryService, logger: logger}
}

// actor pulls the authenticated caller out of the request context. A false
// return means a response has already been written.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool, bool) {
	userIDStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Invalid user ID in context", slog.String("userID", userIDStr))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid authentication context")
		return uuid.Nil, false, false
	}
	return userID, auth.IsAdmin(r.Context()), true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid "+name+" URL parameter")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Generate", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/generate"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Generate"))

	userID, _, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req types.GenerateItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.Generate(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate itinerary", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "List", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "List"))

	userID, _, ok := h.actor(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	resp, err := h.itineraryService.List(ctx, userID, page, pageSize)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list itineraries", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Get", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Get"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	it, err := h.itineraryService.Get(ctx, userID, isAdmin, id)
	if err != nil {
		l.WarnContext(ctx, "Failed to fetch itinerary", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *Handler) ReorderStops(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ReorderStops", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/reorder"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "ReorderStops"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	var req types.ReorderStopsRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.ReorderStops(ctx, userID, isAdmin, id, req)
	if err != nil {
		l.WarnContext(ctx, "Failed to reorder stops", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *Handler) MoveStop(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "MoveStop", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/move"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "MoveStop"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	var req types.MoveStopRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.MoveStop(ctx, userID, isAdmin, id, req)
	if err != nil {
		l.WarnContext(ctx, "Failed to move stop", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *Handler) AddStop(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "AddStop", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/stops"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "AddStop"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	var req types.AddStopRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.AddStop(ctx, userID, isAdmin, id, req)
	if err != nil {
		l.WarnContext(ctx, "Failed to add stop", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}

func (h *Handler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RemoveStop", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/stops/{stopID}"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "RemoveStop"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}
	stopID, ok := parseIDParam(w, r, "stopID")
	if !ok {
		return
	}

	var req types.RemoveStopRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.RemoveStop(ctx, userID, isAdmin, id, stopID, req)
	if err != nil {
		l.WarnContext(ctx, "Failed to remove stop", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Modify", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/modify"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Modify"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	var req types.ModifyItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	it, err := h.itineraryService.Modify(ctx, userID, isAdmin, id, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to modify itinerary", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Copy", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/copy"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Copy"))

	userID, isAdmin, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, "itineraryID")
	if !ok {
		return
	}

	it, err := h.itineraryService.Copy(ctx, userID, isAdmin, id)
	if err != nil {
		l.WarnContext(ctx, "Failed to copy itinerary", slog.Any("error", err))
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, it)
}
