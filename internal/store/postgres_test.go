package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pgxMockAdapter satisfies database.DB over a pgxmock pool.
type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() { a.mock.Close() }

func (a *pgxMockAdapter) Ping(ctx context.Context) error { return a.mock.Ping(ctx) }

func setupMockStore(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock, NewPostgresStore(&pgxMockAdapter{mock: mock})
}

func sampleReport() *PlanningReport {
	return &PlanningReport{
		RunID:            "11111111-1111-1111-1111-111111111111",
		Variant:          "LB",
		StopReason:       "allDemandServed",
		NodesServed:      3,
		DemandServed:     30,
		TotalDemand:      30,
		PercentServed:    100,
		PipeLengthMeters: 300,
		CostEUR:          12000,
		TankCapacityM3:   5,
		Iterations:       3,
		RuntimeMS:        42.5,
	}
}

func TestPostgresStore_Save_WithoutAvailability(t *testing.T) {
	mock, s := setupMockStore(t)
	defer mock.Close()

	ctx := context.Background()
	r := sampleReport()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reports").
		WithArgs(
			r.RunID, r.Variant, r.StopReason, r.Partial,
			r.NodesServed, r.DemandServed, r.TotalDemand, r.PercentServed,
			r.PipeLengthMeters, r.CostEUR, r.TankCapacityM3, r.TankCapacityExceeded,
			r.FailureRate, r.Iterations, r.RuntimeMS,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Save(ctx, r)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_WithAvailability(t *testing.T) {
	mock, s := setupMockStore(t)
	defer mock.Close()

	ctx := context.Background()
	r := sampleReport()
	r.Availability = &AvailabilityRun{
		ReportID:            r.RunID,
		Model:               "current",
		Repetitions:         10000,
		Seed:                7,
		NetworkAvailability: 0.97,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reports").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO availability_runs").
		WithArgs(
			r.RunID, r.Availability.Model, r.Availability.Repetitions, int64(r.Availability.Seed),
			r.Availability.NodeAvgAvailability, r.Availability.NodeWorstAvailability, r.Availability.NetworkAvailability,
			r.Availability.MeanUnsuppliedWaterM3, r.Availability.MTBFDays, r.Availability.AFY, r.Availability.YAUW,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Save(ctx, r)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save_RollsBackOnError(t *testing.T) {
	mock, s := setupMockStore(t)
	defer mock.Close()

	ctx := context.Background()
	r := sampleReport()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reports").WillReturnError(assertError{"boom"})
	mock.ExpectRollback()

	err := s.Save(ctx, r)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	mock, s := setupMockStore(t)
	defer mock.Close()

	ctx := context.Background()
	mock.ExpectQuery("SELECT").WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(ctx, "does-not-exist")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Get_Found(t *testing.T) {
	mock, s := setupMockStore(t)
	defer mock.Close()

	ctx := context.Background()
	r := sampleReport()
	now := time.Now()

	reportRows := pgxmock.NewRows([]string{
		"run_id", "variant", "stop_reason", "partial",
		"nodes_served", "demand_served", "total_demand", "percent_served",
		"pipe_length_m", "cost_eur", "tank_capacity_m3", "tank_capacity_exceeded",
		"failure_rate", "iterations", "runtime_ms", "created_at",
	}).AddRow(
		r.RunID, r.Variant, r.StopReason, r.Partial,
		r.NodesServed, r.DemandServed, r.TotalDemand, r.PercentServed,
		r.PipeLengthMeters, r.CostEUR, r.TankCapacityM3, r.TankCapacityExceeded,
		r.FailureRate, r.Iterations, r.RuntimeMS, now,
	)
	mock.ExpectQuery("SELECT(.|\n)*FROM reports").WillReturnRows(reportRows)
	mock.ExpectQuery("SELECT(.|\n)*FROM availability_runs").WillReturnError(pgx.ErrNoRows)

	got, err := s.Get(ctx, r.RunID)

	require.NoError(t, err)
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.CostEUR, got.CostEUR)
	assert.Nil(t, got.Availability)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
