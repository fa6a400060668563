package storage

import (
	"context"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/query"
)

// Rows is a forward-only cursor over a query result.
// Close must be called when done, even after Next returns false.
type Rows interface {
	// Columns returns the result column names in order.
	Columns() []string

	// Next advances to the next row. Returns false when exhausted or on error.
	Next() bool

	// Scan copies the current row into dest, one pointer per column.
	Scan(dest ...any) error

	// Err returns the error, if any, that stopped iteration.
	Err() error

	// Close releases the cursor.
	Close() error
}

// EventSource executes aggregation queries over the bridge transfer tables.
// Implementations are read-only and safe for concurrent use.
type EventSource interface {
	// Name identifies the source in logs, metrics and errors.
	Name() string

	// Run executes q and returns its result rows.
	Run(ctx context.Context, q *query.Query) (Rows, error)
}

// Pinger is implemented by sources that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventWriter loads raw rows into a source. Used by seeding and tests only;
// the event tables are otherwise populated by an external pipeline.
type EventWriter interface {
	// InsertTransfers appends bridge transfer rows. Several rows may share a tx hash.
	InsertTransfers(ctx context.Context, transfers []*domain.BridgeTransfer) error

	// InsertAmounts appends transfer amount rows. Returns ErrDuplicateKey if an id exists.
	InsertAmounts(ctx context.Context, amounts []*domain.TransferAmount) error
}
