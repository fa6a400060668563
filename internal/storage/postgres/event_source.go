package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
)

// EventSource implements storage.EventSource and storage.EventWriter using PostgreSQL.
type EventSource struct {
	pool   *Pool
	tables query.Tables
}

// NewEventSource creates a new EventSource over the given tables.
// Zero table names default to query.DefaultTables.
func NewEventSource(pool *Pool, tables query.Tables) *EventSource {
	if tables.Transfers == "" {
		tables.Transfers = query.DefaultTables.Transfers
	}
	if tables.Amounts == "" {
		tables.Amounts = query.DefaultTables.Amounts
	}
	return &EventSource{pool: pool, tables: tables}
}

// Compile-time interface checks.
var (
	_ storage.EventSource = (*EventSource)(nil)
	_ storage.EventWriter = (*EventSource)(nil)
	_ storage.Pinger      = (*EventSource)(nil)
)

// Name returns "postgres".
func (s *EventSource) Name() string { return "postgres" }

// Ping checks the server is reachable.
func (s *EventSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Run executes q.
func (s *EventSource) Run(ctx context.Context, q *query.Query) (storage.Rows, error) {
	rows, err := s.pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Kind, err)
	}
	return &pgRows{rows: rows}, nil
}

// InsertTransfers appends transfer rows atomically.
func (s *EventSource) InsertTransfers(ctx context.Context, transfers []*domain.BridgeTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	if err := storage.ValidateTransfers(transfers); err != nil {
		return err
	}

	rows := make([][]any, 0, len(transfers))
	for _, t := range transfers {
		rows = append(rows, []any{
			domain.DateOf(t.EventDate), t.TxHash,
			t.SourceChain, t.DestinationChain, t.Sender, t.TokenSymbol,
		})
	}

	_, err := s.pool.CopyFrom(ctx,
		identifier(s.tables.Transfers),
		[]string{"block_date", "tx_hash", "source_chain", "destination_chain", "sender", "token_symbol"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy transfers: %w", err)
	}
	return nil
}

// InsertAmounts appends amount rows atomically. Fails entire batch on duplicate id.
// Raw values must be valid JSON text; invalid text is rejected with ErrInvalidInput.
func (s *EventSource) InsertAmounts(ctx context.Context, amounts []*domain.TransferAmount) error {
	if len(amounts) == 0 {
		return nil
	}
	if err := storage.ValidateAmounts(amounts); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (
			id, created_at, status, simplified_status, amount_raw, price_raw
		) VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
	`, identifier(s.tables.Amounts).Sanitize())

	for _, a := range amounts {
		amount, err := jsonText(a.AmountRaw)
		if err != nil {
			return fmt.Errorf("amount %s: %w", a.ID, err)
		}
		price, err := jsonText(a.PriceRaw)
		if err != nil {
			return fmt.Errorf("price %s: %w", a.ID, err)
		}

		_, err = tx.Exec(ctx, stmt, a.ID, a.CreatedAt.UTC(), a.Status, a.SimplifiedStatus, amount, price)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert amount: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// jsonText validates raw JSON text for a jsonb column. A nil raw value is SQL NULL.
func jsonText(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	if !json.Valid([]byte(*raw)) {
		return nil, fmt.Errorf("raw value %q is not json: %w", *raw, storage.ErrInvalidInput)
	}
	return raw, nil
}

// identifier splits an optionally schema-qualified table name.
func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.Split(table, "."))
}

// pgRows adapts pgx.Rows to storage.Rows.
type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Columns() []string {
	fields := r.rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	return cols
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgRows) Err() error             { return r.rows.Err() }

func (r *pgRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}
