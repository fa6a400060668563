package domain

import "time"

// Transfer statuses kept by the reconciliation join.
const (
	StatusExecuted           = "executed"
	SimplifiedStatusReceived = "received"
)

// BridgeTransfer is one raw row of the bridge_transfers table.
// A transfer may appear in several rows; rows are collapsed by TxHash.
type BridgeTransfer struct {
	EventDate        time.Time // block date, UTC
	TxHash           string
	SourceChain      *string
	DestinationChain *string
	Sender           *string
	TokenSymbol      *string
}

// TransferAmount is one raw row of the transfer_amounts table.
// ID has the form "<tx_hash>_<suffix>", so several rows can share a tx hash.
// AmountRaw and PriceRaw hold the raw JSON text of the value and may be
// composite, non-numeric or missing.
type TransferAmount struct {
	ID               string
	CreatedAt        time.Time
	Status           string
	SimplifiedStatus string
	AmountRaw        *string
	PriceRaw         *string
}

// TransferEvent is a reconciled transfer: one per tx hash, joined with the
// USD amount of its priced legs. AmountUSD is nil when no leg is priced.
type TransferEvent struct {
	Date             time.Time
	TxHash           string
	SourceChain      *string
	DestinationChain *string
	Sender           *string
	TokenSymbol      *string
	AmountUSD        *float64
}

// Dimension is a categorical field a summary can be grouped by.
type Dimension string

// Supported grouping dimensions.
const (
	DimensionSourceChain      Dimension = "source_chain"
	DimensionDestinationChain Dimension = "destination_chain"
	DimensionToken            Dimension = "token_symbol"
)

// Dimensions lists every supported dimension.
var Dimensions = []Dimension{DimensionSourceChain, DimensionDestinationChain, DimensionToken}

// ParseDimension accepts the column name or a short alias ("source", "destination", "token").
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "source_chain", "source":
		return DimensionSourceChain, nil
	case "destination_chain", "destination":
		return DimensionDestinationChain, nil
	case "token_symbol", "token":
		return DimensionToken, nil
	default:
		return "", &InvalidParameterError{Field: "dimension", Value: s, Reason: "must be one of source_chain, destination_chain, token_symbol"}
	}
}

// Value returns the event's value for d and whether it is present.
// NULL and empty values are absent.
func (e *TransferEvent) Value(d Dimension) (string, bool) {
	var v *string
	switch d {
	case DimensionSourceChain:
		v = e.SourceChain
	case DimensionDestinationChain:
		v = e.DestinationChain
	case DimensionToken:
		v = e.TokenSymbol
	}
	if v == nil || *v == "" {
		return "", false
	}
	return *v, true
}
