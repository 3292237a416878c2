package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/routecraft/routecraft/app/observability/metrics"
	"github.com/routecraft/routecraft/internal/types"
)

// Repository persists itineraries as whole documents. Days, the waypoint
// list and the budget live in JSONB columns so the nested structure is
// read and written atomically.
type Repository interface {
	Create(ctx context.Context, it *types.Itinerary) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.Itinerary, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*types.Itinerary, int, error)
	// Save writes back a modified itinerary. The update only succeeds when
	// the stored revision still matches it.Revision; on success the stored
	// revision is bumped and it.Revision is updated in place. A stale
	// revision yields types.ErrConflict.
	Save(ctx context.Context, it *types.Itinerary) error
}

// PGXPool is the subset of pgxpool.Pool the repository needs; tests swap in
// a pgxmock pool through it.
type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PGXPool = (*pgxpool.Pool)(nil)

type PostgresRepository struct {
	logger *slog.Logger
	pgpool PGXPool
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(pgxpool PGXPool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

func observeQuery(ctx context.Context, query string, start time.Time) {
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", query)))
}

func (r *PostgresRepository) Create(ctx context.Context, it *types.Itinerary) error {
	defer observeQuery(ctx, "itinerary_create", time.Now())

	daysJSON, waypointsJSON, budgetJSON, err := marshalDocument(it)
	if err != nil {
		return err
	}

	now := time.Now()
	it.CreatedAt = now
	it.UpdatedAt = now
	if it.Revision == 0 {
		it.Revision = 1
	}

	_, err = r.pgpool.Exec(ctx, `
        INSERT INTO itineraries
            (id, user_id, title, summary, starting_city, duration_days, tags,
             status, visibility, days, waypoint_list, budget, route_id,
             forked_from, revision, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		it.ID, it.UserID, it.Title, it.Summary, it.StartingCity, it.DurationDays,
		it.Tags, it.Status, it.Visibility, daysJSON, waypointsJSON, budgetJSON,
		it.RouteID, it.ForkedFrom, it.Revision, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert itinerary: %w", err)
	}
	return nil
}

const itineraryColumns = `
    id, user_id, title, summary, starting_city, duration_days, tags,
    status, visibility, days, waypoint_list, budget, route_id,
    forked_from, revision, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*types.Itinerary, error) {
	defer observeQuery(ctx, "itinerary_get", time.Now())

	row := r.pgpool.QueryRow(ctx,
		`SELECT`+itineraryColumns+` FROM itineraries WHERE id = $1`, id)
	it, err := scanItinerary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("itinerary %s: %w", id, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch itinerary: %w", err)
	}
	return it, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*types.Itinerary, int, error) {
	defer observeQuery(ctx, "itinerary_list", time.Now())

	var total int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM itineraries WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count itineraries: %w", err)
	}

	offset := (page - 1) * pageSize
	rows, err := r.pgpool.Query(ctx,
		`SELECT`+itineraryColumns+`
         FROM itineraries
         WHERE user_id = $1
         ORDER BY updated_at DESC
         LIMIT $2 OFFSET $3`, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	itineraries := []*types.Itinerary{}
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan itinerary row: %w", err)
		}
		itineraries = append(itineraries, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate itinerary rows: %w", err)
	}
	return itineraries, total, nil
}

func (r *PostgresRepository) Save(ctx context.Context, it *types.Itinerary) error {
	defer observeQuery(ctx, "itinerary_save", time.Now())

	daysJSON, waypointsJSON, budgetJSON, err := marshalDocument(it)
	if err != nil {
		return err
	}

	it.UpdatedAt = time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE itineraries
        SET title = $1, summary = $2, starting_city = $3, duration_days = $4,
            tags = $5, status = $6, visibility = $7, days = $8,
            waypoint_list = $9, budget = $10, route_id = $11,
            revision = revision + 1, updated_at = $12
        WHERE id = $13 AND revision = $14`,
		it.Title, it.Summary, it.StartingCity, it.DurationDays, it.Tags,
		it.Status, it.Visibility, daysJSON, waypointsJSON, budgetJSON,
		it.RouteID, it.UpdatedAt, it.ID, it.Revision)
	if err != nil {
		return fmt.Errorf("failed to update itinerary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row vanished or someone saved a newer revision first.
		if _, getErr := r.GetByID(ctx, it.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("itinerary %s was modified concurrently: %w", it.ID, types.ErrConflict)
	}
	it.Revision++
	return nil
}

func marshalDocument(it *types.Itinerary) (days, waypoints, budget []byte, err error) {
	days, err = json.Marshal(it.Days)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal days: %w", err)
	}
	waypoints, err = json.Marshal(it.WaypointList)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal waypoint list: %w", err)
	}
	budget, err = json.Marshal(it.Budget)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal budget: %w", err)
	}
	return days, waypoints, budget, nil
}

func scanItinerary(row pgx.Row) (*types.Itinerary, error) {
	var it types.Itinerary
	var daysJSON, waypointsJSON, budgetJSON []byte
	err := row.Scan(
		&it.ID, &it.UserID, &it.Title, &it.Summary, &it.StartingCity,
		&it.DurationDays, &it.Tags, &it.Status, &it.Visibility,
		&daysJSON, &waypointsJSON, &budgetJSON, &it.RouteID,
		&it.ForkedFrom, &it.Revision, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(daysJSON, &it.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal days: %w", err)
	}
	if err := json.Unmarshal(waypointsJSON, &it.WaypointList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal waypoint list: %w", err)
	}
	if err := json.Unmarshal(budgetJSON, &it.Budget); err != nil {
		return nil, fmt.Errorf("failed to unmarshal budget: %w", err)
	}
	return &it, nil
}
