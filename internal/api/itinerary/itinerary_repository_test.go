package itinerary

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecraft/routecraft/internal/types"
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func setupRepositoryTest(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPostgresRepository(mockPool, logger), mockPool
}

func itineraryRow(it *types.Itinerary) *pgxmock.Rows {
	daysJSON, _ := json.Marshal(it.Days)
	waypointsJSON, _ := json.Marshal(it.WaypointList)
	budgetJSON, _ := json.Marshal(it.Budget)
	return pgxmock.NewRows([]string{
		"id", "user_id", "title", "summary", "starting_city", "duration_days",
		"tags", "status", "visibility", "days", "waypoint_list", "budget",
		"route_id", "forked_from", "revision", "created_at", "updated_at",
	}).AddRow(
		it.ID, it.UserID, it.Title, it.Summary, it.StartingCity, it.DurationDays,
		it.Tags, it.Status, it.Visibility, daysJSON, waypointsJSON, budgetJSON,
		it.RouteID, it.ForkedFrom, it.Revision, it.CreatedAt, it.UpdatedAt,
	)
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	ctx := context.Background()

	it := testItinerary(uuid.New())
	it.Revision = 0

	mockPool.ExpectExec("INSERT INTO itineraries").
		WithArgs(anyArgs(17)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, int64(1), it.Revision)
	assert.False(t, it.CreatedAt.IsZero())
	require.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips the JSONB document", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		stored := testItinerary(uuid.New())
		stored.Tags = []string{"history", "food"}
		stored.Budget = types.Budget{Currency: "EUR", Amount: 750}
		stored.CreatedAt = time.Now().Add(-time.Hour)
		stored.UpdatedAt = time.Now()

		mockPool.ExpectQuery("SELECT(.|\n)+FROM itineraries WHERE id").
			WithArgs(stored.ID).
			WillReturnRows(itineraryRow(stored))

		got, err := repo.GetByID(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
		assert.Equal(t, stored.Tags, got.Tags)
		assert.Equal(t, stored.Budget, got.Budget)
		require.Len(t, got.Days, 2)
		assert.Equal(t, []string{"A", "B", "C", "D"}, stopNames(got.Days[0]))
		assert.Len(t, got.WaypointList, 5)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		id := uuid.New()

		mockPool.ExpectQuery("SELECT(.|\n)+FROM itineraries WHERE id").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestPostgresRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the revision on success", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		it := testItinerary(uuid.New())
		it.Revision = 3

		mockPool.ExpectExec("UPDATE itineraries").
			WithArgs(anyArgs(14)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Save(ctx, it)
		require.NoError(t, err)
		assert.Equal(t, int64(4), it.Revision)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("stale revision yields a conflict", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		it := testItinerary(uuid.New())
		it.Revision = 3

		stored := testItinerary(it.UserID)
		stored.ID = it.ID
		stored.Revision = 4

		mockPool.ExpectExec("UPDATE itineraries").
			WithArgs(anyArgs(14)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectQuery("SELECT(.|\n)+FROM itineraries WHERE id").
			WithArgs(it.ID).
			WillReturnRows(itineraryRow(stored))

		err := repo.Save(ctx, it)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.Equal(t, int64(3), it.Revision)
	})

	t.Run("vanished row yields not found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		it := testItinerary(uuid.New())

		mockPool.ExpectExec("UPDATE itineraries").
			WithArgs(anyArgs(14)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mockPool.ExpectQuery("SELECT(.|\n)+FROM itineraries WHERE id").
			WithArgs(it.ID).
			WillReturnError(pgx.ErrNoRows)

		err := repo.Save(ctx, it)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
