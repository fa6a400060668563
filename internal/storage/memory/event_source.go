package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/query"
	"bridge-metrics/internal/storage"
)

// EventSource is an in-memory implementation of storage.EventSource.
//
// It ignores the query text and evaluates Query.Kind and Query.Params
// directly, applying the same reconciliation and numeric coercion as the
// SQL dialects. It serves as the reference executor in tests.
type EventSource struct {
	mu        sync.RWMutex
	transfers []*domain.BridgeTransfer
	amounts   map[string]*domain.TransferAmount // keyed by id
	order     []string                          // amount ids in insertion order
}

// NewEventSource creates an empty in-memory event source.
func NewEventSource() *EventSource {
	return &EventSource{
		amounts: make(map[string]*domain.TransferAmount),
	}
}

// Compile-time interface checks.
var (
	_ storage.EventSource = (*EventSource)(nil)
	_ storage.EventWriter = (*EventSource)(nil)
	_ storage.Pinger      = (*EventSource)(nil)
)

// Name returns "memory".
func (s *EventSource) Name() string { return "memory" }

// Ping always succeeds.
func (s *EventSource) Ping(context.Context) error { return nil }

// InsertTransfers appends transfer rows.
func (s *EventSource) InsertTransfers(_ context.Context, transfers []*domain.BridgeTransfer) error {
	if err := storage.ValidateTransfers(transfers); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range transfers {
		copy := *t
		copy.EventDate = domain.DateOf(t.EventDate)
		s.transfers = append(s.transfers, &copy)
	}
	return nil
}

// InsertAmounts appends amount rows. Fails the entire batch on a duplicate id.
func (s *EventSource) InsertAmounts(_ context.Context, amounts []*domain.TransferAmount) error {
	if err := storage.ValidateAmounts(amounts); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range amounts {
		if _, exists := s.amounts[a.ID]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for _, a := range amounts {
		copy := *a
		s.amounts[a.ID] = &copy
		s.order = append(s.order, a.ID)
	}
	return nil
}

// Run evaluates q against the stored rows.
func (s *EventSource) Run(ctx context.Context, q *query.Query) (storage.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("run query: %w", storage.ErrInvalidInput)
	}

	events := s.Events(q.Params)

	switch q.Kind {
	case query.KindOverview:
		t := totalsOf(events)
		return newRows(q.Columns, [][]any{{t.TransferCount, t.UserCount, t.VolumeUSD, t.PricedCount}}), nil

	case query.KindTimeSeries:
		return newRows(q.Columns, timeSeriesRows(events, q.Params.Granularity)), nil

	default:
		dim, ok := q.Kind.Dimension()
		if !ok {
			return nil, fmt.Errorf("unsupported query kind %q", q.Kind)
		}
		return newRows(q.Columns, groupByRows(events, dim)), nil
	}
}

// Events returns the reconciled transfer events whose date lies in the
// params range, ordered by tx hash.
func (s *EventSource) Events(params domain.QueryParams) []domain.TransferEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amounts := make(map[string]float64)
	for _, id := range s.order {
		a := s.amounts[id]
		if !a.Settled() {
			continue
		}
		if usd, ok := a.AmountUSD(); ok {
			amounts[a.TxHash()] += usd
		}
	}

	byHash := make(map[string]*domain.TransferEvent)
	for _, t := range s.transfers {
		e, ok := byHash[t.TxHash]
		if !ok {
			byHash[t.TxHash] = &domain.TransferEvent{
				Date:             t.EventDate,
				TxHash:           t.TxHash,
				SourceChain:      t.SourceChain,
				DestinationChain: t.DestinationChain,
				Sender:           t.Sender,
				TokenSymbol:      t.TokenSymbol,
			}
			continue
		}
		if t.EventDate.Before(e.Date) {
			e.Date = t.EventDate
		}
		e.SourceChain = minString(e.SourceChain, t.SourceChain)
		e.DestinationChain = minString(e.DestinationChain, t.DestinationChain)
		e.Sender = minString(e.Sender, t.Sender)
		e.TokenSymbol = minString(e.TokenSymbol, t.TokenSymbol)
	}

	var events []domain.TransferEvent
	for hash, e := range byHash {
		if !params.Contains(e.Date) {
			continue
		}
		if usd, ok := amounts[hash]; ok {
			v := usd
			e.AmountUSD = &v
		}
		events = append(events, *e)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].TxHash < events[j].TxHash })
	return events
}

// minString mirrors SQL MIN over a nullable column: NULLs are ignored.
func minString(a, b *string) *string {
	if a == nil {
		return b
	}
	if b == nil || *a <= *b {
		return a
	}
	return b
}

// totalsOf mirrors the overview aggregates: distinct tx hashes, distinct
// non-NULL senders, sum and count of present USD amounts.
func totalsOf(events []domain.TransferEvent) domain.Totals {
	hashes := make(map[string]struct{}, len(events))
	senders := make(map[string]struct{})
	var t domain.Totals

	for _, e := range events {
		hashes[e.TxHash] = struct{}{}
		if e.Sender != nil {
			senders[*e.Sender] = struct{}{}
		}
		if e.AmountUSD != nil {
			t.VolumeUSD += *e.AmountUSD
			t.PricedCount++
		}
	}

	t.TransferCount = int64(len(hashes))
	t.UserCount = int64(len(senders))
	return t
}

func timeSeriesRows(events []domain.TransferEvent, g domain.Granularity) [][]any {
	buckets := make(map[time.Time][]domain.TransferEvent)
	for _, e := range events {
		b := g.Truncate(e.Date)
		buckets[b] = append(buckets[b], e)
	}

	keys := make([]time.Time, 0, len(buckets))
	for b := range buckets {
		keys = append(keys, b)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	rows := make([][]any, 0, len(keys))
	for _, b := range keys {
		t := totalsOf(buckets[b])
		rows = append(rows, []any{b, t.TransferCount, t.UserCount, t.VolumeUSD, t.PricedCount})
	}
	return rows
}

func groupByRows(events []domain.TransferEvent, dim domain.Dimension) [][]any {
	groups := make(map[string][]domain.TransferEvent)
	for _, e := range events {
		if v, ok := e.Value(dim); ok {
			groups[v] = append(groups[v], e)
		}
	}

	type group struct {
		value  string
		totals domain.Totals
	}
	list := make([]group, 0, len(groups))
	for v, es := range groups {
		list = append(list, group{value: v, totals: totalsOf(es)})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].totals.TransferCount != list[j].totals.TransferCount {
			return list[i].totals.TransferCount > list[j].totals.TransferCount
		}
		return list[i].value < list[j].value
	})

	rows := make([][]any, 0, len(list))
	for _, g := range list {
		rows = append(rows, []any{g.value, g.totals.TransferCount, g.totals.UserCount, g.totals.VolumeUSD})
	}
	return rows
}
