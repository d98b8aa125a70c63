// Package store persists finalized planning reports and their attached
// availability runs to Postgres.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a report id has no matching row.
var ErrNotFound = errors.New("report not found")

// Store is the persistence interface the orchestrator's caller writes
// finished reports through.
type Store interface {
	// Save inserts a report and, if present, its availability run, in a
	// single transaction.
	Save(ctx context.Context, report *PlanningReport) error

	// Get returns a report by run id, including its availability run if
	// one was recorded.
	Get(ctx context.Context, runID string) (*PlanningReport, error)

	// List returns a page of reports ordered by created_at.
	List(ctx context.Context, params ListParams) (*ListResult, error)

	// Close releases underlying connections.
	Close()
}
