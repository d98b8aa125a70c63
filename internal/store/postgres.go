package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"watermesh/pkg/database"
)

// PostgresStore is a Store backed by Postgres via database.DB.
type PostgresStore struct {
	db database.DB
}

// NewPostgresStore wraps db.
func NewPostgresStore(db database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, r *PlanningReport) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO reports (
			run_id, variant, stop_reason, partial,
			nodes_served, demand_served, total_demand, percent_served,
			pipe_length_m, cost_eur, tank_capacity_m3, tank_capacity_exceeded,
			failure_rate, iterations, runtime_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.RunID, r.Variant, r.StopReason, r.Partial,
		r.NodesServed, r.DemandServed, r.TotalDemand, r.PercentServed,
		r.PipeLengthMeters, r.CostEUR, r.TankCapacityM3, r.TankCapacityExceeded,
		r.FailureRate, r.Iterations, r.RuntimeMS,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if r.Availability != nil {
		a := r.Availability
		_, err = tx.Exec(ctx, `
			INSERT INTO availability_runs (
				report_id, model, repetitions, seed,
				node_avg_availability, node_worst_availability, network_availability,
				mean_unsupplied_water_m3, mtbf_days, afy, yauw
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			r.RunID, a.Model, a.Repetitions, int64(a.Seed),
			a.NodeAvgAvailability, a.NodeWorstAvailability, a.NetworkAvailability,
			a.MeanUnsuppliedWaterM3, a.MTBFDays, a.AFY, a.YAUW,
		)
		if err != nil {
			return fmt.Errorf("insert availability run: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, runID string) (*PlanningReport, error) {
	row := s.db.QueryRow(ctx, `
		SELECT
			run_id, variant, stop_reason, partial,
			nodes_served, demand_served, total_demand, percent_served,
			pipe_length_m, cost_eur, tank_capacity_m3, tank_capacity_exceeded,
			failure_rate, iterations, runtime_ms, created_at
		FROM reports WHERE run_id = $1`, runID)

	r, err := scanReport(row)
	if err != nil {
		return nil, err
	}

	arow := s.db.QueryRow(ctx, `
		SELECT id, report_id, model, repetitions, seed,
			node_avg_availability, node_worst_availability, network_availability,
			mean_unsupplied_water_m3, mtbf_days, afy, yauw, created_at
		FROM availability_runs WHERE report_id = $1`, runID)

	a, err := scanAvailabilityRun(arow)
	if err == nil {
		r.Availability = a
	} else if err != ErrNotFound {
		return nil, err
	}

	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	whereClause := "TRUE"
	var args []any
	argIdx := 1
	if params.Variant != "" {
		whereClause = fmt.Sprintf("variant = $%d", argIdx)
		args = append(args, params.Variant)
		argIdx++
	}

	var totalCount int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports WHERE %s", whereClause)
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	orderDir := "ASC"
	if params.OrderDesc {
		orderDir = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT
			run_id, variant, stop_reason, partial,
			nodes_served, demand_served, total_demand, percent_served,
			pipe_length_m, cost_eur, tank_capacity_m3, tank_capacity_exceeded,
			failure_rate, iterations, runtime_ms, created_at
		FROM reports WHERE %s ORDER BY created_at %s LIMIT $%d OFFSET $%d`,
		whereClause, orderDir, argIdx, argIdx+1)
	args = append(args, params.Limit+1, params.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*PlanningReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(reports) > int(params.Limit)
	if hasMore {
		reports = reports[:params.Limit]
	}

	return &ListResult{Reports: reports, TotalCount: totalCount, HasMore: hasMore}, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// row is satisfied by both pgx.Row (QueryRow) and pgx.Rows (Query),
// letting scanReport serve both Get and List.
type row interface {
	Scan(dest ...any) error
}

func scanReport(r row) (*PlanningReport, error) {
	var pr PlanningReport
	var createdAt sql.NullTime

	err := r.Scan(
		&pr.RunID, &pr.Variant, &pr.StopReason, &pr.Partial,
		&pr.NodesServed, &pr.DemandServed, &pr.TotalDemand, &pr.PercentServed,
		&pr.PipeLengthMeters, &pr.CostEUR, &pr.TankCapacityM3, &pr.TankCapacityExceeded,
		&pr.FailureRate, &pr.Iterations, &pr.RuntimeMS, &createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}
	if createdAt.Valid {
		pr.CreatedAt = createdAt.Time
	}
	return &pr, nil
}

func scanAvailabilityRun(r row) (*AvailabilityRun, error) {
	var a AvailabilityRun
	var seed int64
	var createdAt sql.NullTime

	err := r.Scan(
		&a.ID, &a.ReportID, &a.Model, &a.Repetitions, &seed,
		&a.NodeAvgAvailability, &a.NodeWorstAvailability, &a.NetworkAvailability,
		&a.MeanUnsuppliedWaterM3, &a.MTBFDays, &a.AFY, &a.YAUW, &createdAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan availability run: %w", err)
	}
	a.Seed = uint64(seed)
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

func isNoRows(err error) bool {
	return err == pgx.ErrNoRows
}
