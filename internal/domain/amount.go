package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumeric coerces the raw JSON text of an amount or price field.
// Only a JSON number, or a JSON string holding a finite decimal number, is
// numeric. Arrays, objects, booleans, null and anything unparsable are absent.
func ParseNumeric(raw *string) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return 0, false
	}

	switch s[0] {
	case '[', '{':
		return 0, false
	case '"':
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(inner)
	}

	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AmountUSD returns amount * price when both are numeric.
func (a *TransferAmount) AmountUSD() (float64, bool) {
	amount, ok := ParseNumeric(a.AmountRaw)
	if !ok {
		return 0, false
	}
	price, ok := ParseNumeric(a.PriceRaw)
	if !ok {
		return 0, false
	}
	return amount * price, true
}

// Settled reports whether the row belongs to an executed and received transfer.
func (a *TransferAmount) Settled() bool {
	return a.Status == StatusExecuted && a.SimplifiedStatus == SimplifiedStatusReceived
}

// TxHash returns the transaction hash part of the row id.
func (a *TransferAmount) TxHash() string {
	if i := strings.IndexByte(a.ID, '_'); i >= 0 {
		return a.ID[:i]
	}
	return a.ID
}
