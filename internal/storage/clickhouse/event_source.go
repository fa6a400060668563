package clickhouse

import (
	"context"
	"fmt"
	"time"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
)

// EventSource implements storage.EventSource and storage.EventWriter using ClickHouse.
type EventSource struct {
	conn   *Conn
	tables query.Tables
}

// NewEventSource creates a new EventSource over the given tables.
// Zero table names default to query.DefaultTables.
func NewEventSource(conn *Conn, tables query.Tables) *EventSource {
	if tables.Transfers == "" {
		tables.Transfers = query.DefaultTables.Transfers
	}
	if tables.Amounts == "" {
		tables.Amounts = query.DefaultTables.Amounts
	}
	return &EventSource{conn: conn, tables: tables}
}

// Compile-time interface checks.
var (
	_ storage.EventSource = (*EventSource)(nil)
	_ storage.EventWriter = (*EventSource)(nil)
	_ storage.Pinger      = (*EventSource)(nil)
)

// Name returns "clickhouse".
func (s *EventSource) Name() string { return "clickhouse" }

// Ping checks the server is reachable.
func (s *EventSource) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Run executes q. The returned driver rows satisfy storage.Rows as is.
func (s *EventSource) Run(ctx context.Context, q *query.Query) (storage.Rows, error) {
	rows, err := s.conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Kind, err)
	}
	return rows, nil
}

// InsertTransfers appends transfer rows in one batch.
func (s *EventSource) InsertTransfers(ctx context.Context, transfers []*domain.BridgeTransfer) error {
	if len(transfers) == 0 {
		return nil
	}
	if err := storage.ValidateTransfers(transfers); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			block_date, tx_hash, source_chain, destination_chain, sender, token_symbol
		)
	`, s.tables.Transfers))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range transfers {
		err = batch.Append(
			domain.DateOf(t.EventDate), t.TxHash,
			t.SourceChain, t.DestinationChain, t.Sender, t.TokenSymbol,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// InsertAmounts appends amount rows in one batch. Fails entire batch on duplicate id.
func (s *EventSource) InsertAmounts(ctx context.Context, amounts []*domain.TransferAmount) error {
	if len(amounts) == 0 {
		return nil
	}
	if err := storage.ValidateAmounts(amounts); err != nil {
		return err
	}

	// MergeTree doesn't enforce uniqueness; check existing ids explicitly
	for _, a := range amounts {
		exists, err := s.amountExists(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			id, created_at, status, simplified_status, amount_raw, price_raw
		)
	`, s.tables.Amounts))
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range amounts {
		createdAt := a.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Unix(0, 0).UTC()
		}
		err = batch.Append(
			a.ID, createdAt.UTC(), a.Status, a.SimplifiedStatus, a.AmountRaw, a.PriceRaw,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// amountExists checks if an amount row with the given id exists.
func (s *EventSource) amountExists(ctx context.Context, id string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s WHERE id = ?", s.tables.Amounts), id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
