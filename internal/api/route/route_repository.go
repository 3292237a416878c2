package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/routecraft/routecraft/internal/types"
)

// Repository stores published routes. A route is an immutable snapshot of an
// itinerary's waypoint list at publish time, except that republishing the
// same itinerary replaces the snapshot in place.
type Repository interface {
	Upsert(ctx context.Context, route *types.Route) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Route, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *PostgresRepository) Upsert(ctx context.Context, route *types.Route) error {
	waypointsJSON, err := json.Marshal(route.Waypoints)
	if err != nil {
		return fmt.Errorf("failed to marshal waypoints: %w", err)
	}
	route.PublishedAt = time.Now()

	// Republishing keeps the original route ID so shared links stay valid.
	err = r.pgpool.QueryRow(ctx, `
        INSERT INTO routes (id, itinerary_id, user_id, title, summary, tags, waypoints, published_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (itinerary_id) DO UPDATE
        SET title = EXCLUDED.title, summary = EXCLUDED.summary,
            tags = EXCLUDED.tags, waypoints = EXCLUDED.waypoints,
            published_at = EXCLUDED.published_at
        RETURNING id`,
		route.ID, route.ItineraryID, route.UserID, route.Title, route.Summary,
		route.Tags, waypointsJSON, route.PublishedAt).Scan(&route.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert route: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.Route, error) {
	var route types.Route
	var waypointsJSON []byte
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, itinerary_id, user_id, title, summary, tags, waypoints, published_at
        FROM routes WHERE id = $1`, id).Scan(
		&route.ID, &route.ItineraryID, &route.UserID, &route.Title,
		&route.Summary, &route.Tags, &waypointsJSON, &route.PublishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("route %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch route: %w", err)
	}
	if err := json.Unmarshal(waypointsJSON, &route.Waypoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waypoints: %w", err)
	}
	return &route, nil
}
