// Package fixtures provides a small deterministic bridge transfer dataset
// for local runs and tests.
//
// The dataset covers the awkward cases of the raw tables: transfers spread
// over several rows, unsettled legs, composite, unparsable and quoted raw
// amounts, NULL and empty dimension values, a NULL sender and rows just
// outside the default test range.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"bridge-metrics/internal/domain"
	"bridge-metrics/internal/storage"
)

// Range bounds the dataset rows used by tests; two transfers fall just outside.
const (
	RangeStart = "2024-01-01"
	RangeEnd   = "2024-03-31"
)

func s(v string) *string { return &v }

func day(v string) time.Time {
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		panic(err)
	}
	return t
}

// Transfers returns the raw bridge_transfers rows.
func Transfers() []*domain.BridgeTransfer {
	return []*domain.BridgeTransfer{
		{EventDate: day("2024-01-02"), TxHash: "0xa1", SourceChain: s("ethereum"), DestinationChain: s("osmosis"), Sender: s("alice"), TokenSymbol: s("USDC")},
		// second row of 0xa1: later date and a NULL sender are both absorbed by MIN
		{EventDate: day("2024-01-03"), TxHash: "0xa1", SourceChain: s("ethereum"), DestinationChain: s("osmosis"), Sender: nil, TokenSymbol: s("USDC")},
		{EventDate: day("2024-01-08"), TxHash: "0xb2", SourceChain: s("polygon"), DestinationChain: s("ethereum"), Sender: s("bob"), TokenSymbol: s("AXL")},
		{EventDate: day("2024-01-09"), TxHash: "0xc3", SourceChain: s("ethereum"), DestinationChain: s("avalanche"), Sender: s("alice"), TokenSymbol: s("USDC")},
		{EventDate: day("2024-02-01"), TxHash: "0xd4", SourceChain: nil, DestinationChain: s("osmosis"), Sender: s("carol"), TokenSymbol: nil},
		{EventDate: day("2024-02-14"), TxHash: "0xe5", SourceChain: s(""), DestinationChain: s(""), Sender: s("dave"), TokenSymbol: s("WETH")},
		{EventDate: day("2024-03-31"), TxHash: "0xf6", SourceChain: s("avalanche"), DestinationChain: s("ethereum"), Sender: nil, TokenSymbol: s("USDC")},
		{EventDate: day("2024-04-01"), TxHash: "0x07", SourceChain: s("ethereum"), DestinationChain: s("osmosis"), Sender: s("erin"), TokenSymbol: s("USDC")},
		{EventDate: day("2023-12-31"), TxHash: "0x08", SourceChain: s("polygon"), DestinationChain: s("osmosis"), Sender: s("frank"), TokenSymbol: s("AXL")},
	}
}

// Amounts returns the raw transfer_amounts rows. Raw values are JSON text.
func Amounts() []*domain.TransferAmount {
	const (
		executed = domain.StatusExecuted
		received = domain.SimplifiedStatusReceived
	)
	at := day("2024-01-01")
	return []*domain.TransferAmount{
		{ID: "0xa1_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("100"), PriceRaw: s("1.0")},
		{ID: "0xa1_2", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s(`"50"`), PriceRaw: s("1")},
		{ID: "0xb2_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("10"), PriceRaw: s("2.5")},
		{ID: "0xc3_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("[1, 2]"), PriceRaw: s("1")},
		{ID: "0xc3_2", CreatedAt: at, Status: executed, SimplifiedStatus: "failed", AmountRaw: s("1000"), PriceRaw: s("1")},
		{ID: "0xd4_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s(`{"value": 1}`), PriceRaw: s("1")},
		{ID: "0xe5_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s(`"abc"`), PriceRaw: s("1")},
		{ID: "0xe5_2", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("4"), PriceRaw: s("5")},
		{ID: "0xf6_1", CreatedAt: at, Status: "pending", SimplifiedStatus: received, AmountRaw: s("99"), PriceRaw: s("1")},
		{ID: "0xf6_2", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("1e2"), PriceRaw: s(`"0.5"`)},
		{ID: "0x07_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("1000"), PriceRaw: s("1")},
		{ID: "0x08_1", CreatedAt: at, Status: executed, SimplifiedStatus: received, AmountRaw: s("500"), PriceRaw: nil},
	}
}

// Load inserts the dataset through w.
func Load(ctx context.Context, w storage.EventWriter) error {
	if err := w.InsertTransfers(ctx, Transfers()); err != nil {
		return fmt.Errorf("insert fixture transfers: %w", err)
	}
	if err := w.InsertAmounts(ctx, Amounts()); err != nil {
		return fmt.Errorf("insert fixture amounts: %w", err)
	}
	return nil
}
