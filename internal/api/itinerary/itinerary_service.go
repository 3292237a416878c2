package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/routecraft/routecraft/app/observability/metrics"
	"github.com/routecraft/routecraft/internal/api/placeresolver"
	"github.com/routecraft/routecraft/internal/api/planner"
	"github.com/routecraft/routecraft/internal/types"
)

// maxConcurrentLookups caps the resolver fan-out during enrichment so one
// generation burst cannot exhaust the provider quota.
const maxConcurrentLookups = 8

// Service owns the itinerary lifecycle: generation with enrichment, the
// structural mutations, listing and forking.
type Service interface {
	Generate(ctx context.Context, userID uuid.UUID, req types.GenerateItineraryRequest) (*types.Itinerary, error)
	Get(ctx context.Context, viewerID uuid.UUID, isAdmin bool, id uuid.UUID) (*types.Itinerary, error)
	List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItinerariesResponse, error)
	ReorderStops(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ReorderStopsRequest) (*types.Itinerary, error)
	MoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.MoveStopRequest) (*types.Itinerary, error)
	AddStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.AddStopRequest) (*types.Itinerary, error)
	RemoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id, stopID uuid.UUID, req types.RemoveStopRequest) (*types.Itinerary, error)
	Modify(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ModifyItineraryRequest) (*types.Itinerary, error)
	Copy(ctx context.Context, actorID uuid.UUID, isAdmin bool, sourceID uuid.UUID) (*types.Itinerary, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	resolver  placeresolver.Resolver
	generator planner.Generator
}

var _ Service = (*ServiceImpl)(nil)

func NewService(repo Repository, resolver placeresolver.Resolver, generator planner.Generator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		resolver:  resolver,
		generator: generator,
	}
}

func (s *ServiceImpl) Generate(ctx context.Context, userID uuid.UUID, req types.GenerateItineraryRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Generate"), slog.String("userID", userID.String()))

	if strings.TrimSpace(req.Brief) == "" && req.Preferences.StartingCity == "" {
		return nil, fmt.Errorf("a trip brief or a starting city is required: %w", types.ErrInvalidArgument)
	}

	plan, err := s.generator.GeneratePlan(ctx, req.Brief, req.Preferences)
	if err != nil {
		l.WarnContext(ctx, "plan generation failed, falling back to placeholder plan", slog.Any("error", err))
		plan = planner.FallbackPlan(req.Brief, req.Preferences)
	}
	planner.EnforceDuration(plan, req.Preferences.DurationDays)

	it := &types.Itinerary{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        plan.Title,
		Summary:      plan.Summary,
		StartingCity: req.Preferences.StartingCity,
		DurationDays: plan.DurationDays,
		Tags:         plan.Tags,
		Status:       types.ItineraryStatusDraft,
		Visibility:   types.VisibilityPrivate,
		Days:         plan.Days,
		Revision:     1,
	}
	assignStopIDs(it.Days)
	s.enrichStops(ctx, it.Days, it.StartingCity)

	budget, err := s.generator.EstimateBudget(ctx, it)
	if err != nil {
		l.WarnContext(ctx, "budget estimation failed, storing empty budget", slog.Any("error", err))
		budget = types.Budget{}
	}
	it.Budget = budget
	it.WaypointList = ProjectWaypoints(it.Days)

	if err := s.repo.Create(ctx, it); err != nil {
		l.ErrorContext(ctx, "failed to store generated itinerary", slog.Any("error", err))
		return nil, err
	}
	metrics.Get().GenerateRequestsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "itinerary generated",
		slog.String("itineraryID", it.ID.String()),
		slog.Int("days", len(it.Days)),
		slog.Int("stops", it.TotalStops()))
	return it, nil
}

func (s *ServiceImpl) Get(ctx context.Context, viewerID uuid.UUID, isAdmin bool, id uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Get")
	defer span.End()

	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.Visibility != types.VisibilityPublic && it.UserID != viewerID && !isAdmin {
		return nil, fmt.Errorf("itinerary %s is private: %w", id, types.ErrForbidden)
	}
	return it, nil
}

func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItinerariesResponse, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	items, total, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	resp := &types.PaginatedItinerariesResponse{
		Itineraries:  make([]types.Itinerary, 0, len(items)),
		TotalRecords: total,
		Page:         page,
		PageSize:     pageSize,
	}
	for _, it := range items {
		resp.Itineraries = append(resp.Itineraries, *it)
	}
	return resp, nil
}

func (s *ServiceImpl) ReorderStops(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ReorderStopsRequest) (*types.Itinerary, error) {
	return s.mutate(ctx, actorID, isAdmin, id, "reorder", func(it *types.Itinerary) error {
		day, err := findDay(it, req.DayNumber)
		if err != nil {
			return err
		}
		n := len(day.Stops)
		if req.OldIndex < 0 || req.OldIndex >= n {
			return fmt.Errorf("old index %d out of range for day %d: %w", req.OldIndex, req.DayNumber, types.ErrInvalidArgument)
		}
		if req.NewIndex < 0 || req.NewIndex >= n {
			return fmt.Errorf("new index %d out of range for day %d: %w", req.NewIndex, req.DayNumber, types.ErrInvalidArgument)
		}
		stop := day.Stops[req.OldIndex]
		day.Stops = append(day.Stops[:req.OldIndex], day.Stops[req.OldIndex+1:]...)
		day.Stops = insertStop(day.Stops, req.NewIndex, stop)
		return nil
	})
}

func (s *ServiceImpl) MoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.MoveStopRequest) (*types.Itinerary, error) {
	return s.mutate(ctx, actorID, isAdmin, id, "move", func(it *types.Itinerary) error {
		from, err := findDay(it, req.FromDay)
		if err != nil {
			return err
		}
		to, err := findDay(it, req.ToDay)
		if err != nil {
			return err
		}
		if req.FromIndex < 0 || req.FromIndex >= len(from.Stops) {
			return fmt.Errorf("from index %d out of range for day %d: %w", req.FromIndex, req.FromDay, types.ErrInvalidArgument)
		}
		stop := from.Stops[req.FromIndex]
		from.Stops = append(from.Stops[:req.FromIndex], from.Stops[req.FromIndex+1:]...)

		insert := len(to.Stops)
		if req.ToIndex != nil && *req.ToIndex >= 0 && *req.ToIndex <= len(to.Stops) {
			insert = *req.ToIndex
		}
		to.Stops = insertStop(to.Stops, insert, stop)
		return nil
	})
}

func (s *ServiceImpl) AddStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.AddStopRequest) (*types.Itinerary, error) {
	return s.mutate(ctx, actorID, isAdmin, id, "add_stop", func(it *types.Itinerary) error {
		day, err := findDay(it, req.DayNumber)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(req.PlaceName)
		if name == "" {
			return fmt.Errorf("place name is required: %w", types.ErrInvalidArgument)
		}

		stop := types.Stop{
			ID:          uuid.New(),
			Name:        name,
			Description: req.Notes,
		}
		if req.Location != nil && req.Location.Geo != nil {
			// Pin-on-map path: the caller already knows where this is.
			stop.Location = *req.Location
		} else {
			hint := cityHintForDay(it, day)
			match, err := s.resolver.Search(ctx, name, hint)
			if err != nil {
				s.logger.WarnContext(ctx, "place lookup failed, adding unresolved stop",
					slog.String("place", name), slog.Any("error", err))
				match = nil
			}
			if match != nil {
				stop = mergeResolvedStop(stop, match)
			} else {
				stop.Location.City = hint
			}
		}
		day.Stops = append(day.Stops, stop)
		return nil
	})
}

func (s *ServiceImpl) RemoveStop(ctx context.Context, actorID uuid.UUID, isAdmin bool, id, stopID uuid.UUID, req types.RemoveStopRequest) (*types.Itinerary, error) {
	return s.mutate(ctx, actorID, isAdmin, id, "remove_stop", func(it *types.Itinerary) error {
		day, err := findDay(it, req.DayNumber)
		if err != nil {
			return err
		}
		for i, stop := range day.Stops {
			if stop.ID == stopID {
				day.Stops = append(day.Stops[:i], day.Stops[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("stop %s not found in day %d: %w", stopID, req.DayNumber, types.ErrNotFound)
	})
}

func (s *ServiceImpl) Modify(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, req types.ModifyItineraryRequest) (*types.Itinerary, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("a change request prompt is required: %w", types.ErrInvalidArgument)
	}
	return s.mutate(ctx, actorID, isAdmin, id, "modify", func(it *types.Itinerary) error {
		cityLock := it.StartingCity
		if cityLock == "" {
			cityLock = firstStopCity(it.Days)
		}
		newDays, err := s.generator.ModifyPlan(ctx, it.Days, prompt, cityLock)
		if err != nil {
			return fmt.Errorf("failed to rework itinerary plan: %w", err)
		}
		reconcileStops(it.Days, newDays)
		assignStopIDs(newDays)
		s.enrichStops(ctx, newDays, cityLock)
		it.Days = newDays
		it.DurationDays = len(newDays)

		if budget, err := s.generator.EstimateBudget(ctx, it); err == nil {
			it.Budget = budget
		} else {
			s.logger.WarnContext(ctx, "budget re-estimation failed, keeping previous budget", slog.Any("error", err))
		}
		return nil
	})
}

func (s *ServiceImpl) Copy(ctx context.Context, actorID uuid.UUID, isAdmin bool, sourceID uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Copy")
	defer span.End()
	l := s.logger.With(slog.String("method", "Copy"), slog.String("sourceID", sourceID.String()))

	src, err := s.repo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if src.Visibility != types.VisibilityPublic && src.UserID != actorID && !isAdmin {
		return nil, fmt.Errorf("itinerary %s is private: %w", sourceID, types.ErrForbidden)
	}

	cp := &types.Itinerary{
		ID:           uuid.New(),
		UserID:       actorID,
		Title:        src.Title,
		Summary:      src.Summary,
		StartingCity: src.StartingCity,
		DurationDays: src.DurationDays,
		Tags:         append([]string{}, src.Tags...),
		Status:       types.ItineraryStatusDraft,
		Visibility:   types.VisibilityPrivate,
		Days:         copyDays(src.Days),
		Budget:       src.Budget,
		ForkedFrom:   &src.ID,
		Revision:     1,
	}
	cp.WaypointList = ProjectWaypoints(cp.Days)
	if err := s.repo.Create(ctx, cp); err != nil {
		l.ErrorContext(ctx, "failed to store itinerary fork", slog.Any("error", err))
		return nil, err
	}
	l.InfoContext(ctx, "itinerary forked", slog.String("forkID", cp.ID.String()))
	return cp, nil
}

// mutate runs one structural edit under the shared load, authorize, apply,
// reproject, save sequence. fn operates on the freshly loaded itinerary.
func (s *ServiceImpl) mutate(ctx context.Context, actorID uuid.UUID, isAdmin bool, id uuid.UUID, op string, fn func(it *types.Itinerary) error) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Mutate", trace.WithAttributes(
		attribute.String("mutation.op", op),
		attribute.String("itinerary.id", id.String()),
	))
	defer span.End()

	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.UserID != actorID && !isAdmin {
		return nil, fmt.Errorf("itinerary %s belongs to another user: %w", id, types.ErrForbidden)
	}
	if err := fn(it); err != nil {
		return nil, err
	}
	it.WaypointList = ProjectWaypoints(it.Days)
	if err := s.repo.Save(ctx, it); err != nil {
		return nil, err
	}
	metrics.Get().MutationRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("op", op)))
	return it, nil
}

// enrichStops resolves every unresolved stop against the place provider,
// fanning out with a bounded worker group. Lookup failures and misses leave
// the stop as the generator drafted it.
func (s *ServiceImpl) enrichStops(ctx context.Context, days []types.Day, baseCity string) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for di := range days {
		for si := range days[di].Stops {
			stop := &days[di].Stops[si]
			if stop.Resolved() {
				continue
			}
			g.Go(func() error {
				hint := stop.Location.City
				if hint == "" {
					hint = baseCity
				}
				match, err := s.resolver.Search(gctx, stop.Name, hint)
				if err != nil {
					s.logger.WarnContext(gctx, "place lookup failed, leaving stop unresolved",
						slog.String("stop", stop.Name), slog.Any("error", err))
					return nil
				}
				if match != nil {
					*stop = mergeResolvedStop(*stop, match)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	metrics.Get().EnrichmentDurationSeconds.Record(ctx, time.Since(start).Seconds())
}

func assignStopIDs(days []types.Day) {
	for di := range days {
		for si := range days[di].Stops {
			if days[di].Stops[si].ID == uuid.Nil {
				days[di].Stops[si].ID = uuid.New()
			}
		}
	}
}

// reconcileStops carries stop identity and resolved place data from the
// previous days into a reworked plan, matching by name. Without this every
// plan rework would mint new IDs and re-resolve stops that did not change.
// Each previous stop is consumed at most once so a reworked plan that repeats
// a name gets a fresh identity for the extra occurrences.
func reconcileStops(oldDays, newDays []types.Day) {
	known := make(map[string]types.Stop)
	for _, day := range oldDays {
		for _, stop := range day.Stops {
			known[strings.ToLower(stop.Name)] = stop
		}
	}
	for di := range newDays {
		for si := range newDays[di].Stops {
			drafted := &newDays[di].Stops[si]
			key := strings.ToLower(drafted.Name)
			prev, ok := known[key]
			if !ok {
				continue
			}
			delete(known, key)
			drafted.ID = prev.ID
			drafted.ExternalID = prev.ExternalID
			drafted.Location = prev.Location
			drafted.Rating = prev.Rating
			if len(drafted.Resources) == 0 {
				drafted.Resources = prev.Resources
			}
		}
	}
}

func findDay(it *types.Itinerary, dayNumber int) (*types.Day, error) {
	for i := range it.Days {
		if it.Days[i].DayNumber == dayNumber {
			return &it.Days[i], nil
		}
	}
	return nil, fmt.Errorf("day %d not found in itinerary %s: %w", dayNumber, it.ID, types.ErrNotFound)
}

func insertStop(stops []types.Stop, index int, stop types.Stop) []types.Stop {
	stops = append(stops, types.Stop{})
	copy(stops[index+1:], stops[index:])
	stops[index] = stop
	return stops
}

// cityHintForDay picks the best available city context for a resolver lookup.
func cityHintForDay(it *types.Itinerary, day *types.Day) string {
	for _, stop := range day.Stops {
		if stop.Location.City != "" {
			return stop.Location.City
		}
	}
	return it.StartingCity
}

// copyDays deep-copies the day structure for a fork, minting fresh stop IDs
// so the fork's stops are addressable independently of the source.
func copyDays(days []types.Day) []types.Day {
	out := make([]types.Day, len(days))
	for i, day := range days {
		cp := day
		cp.Stops = make([]types.Stop, len(day.Stops))
		for j, stop := range day.Stops {
			sc := stop
			sc.ID = uuid.New()
			sc.Resources = append([]string{}, stop.Resources...)
			if stop.Location.Geo != nil {
				geo := *stop.Location.Geo
				sc.Location.Geo = &geo
			}
			if stop.Rating != nil {
				rating := *stop.Rating
				sc.Rating = &rating
			}
			cp.Stops[j] = sc
		}
		out[i] = cp
	}
	return out
}

func firstStopCity(days []types.Day) string {
	for _, day := range days {
		for _, stop := range day.Stops {
			if stop.Location.City != "" {
				return stop.Location.City
			}
		}
	}
	return ""
}
