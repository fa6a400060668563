package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func str(s string) *string { return &s }

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		raw  *string
		want float64
		ok   bool
	}{
		{str("12.5"), 12.5, true},
		{str(" 3 "), 3, true},
		{str(`"42"`), 42, true},
		{str(`" 1e3 "`), 1000, true},
		{str("-0.25"), -0.25, true},
		{nil, 0, false},
		{str(""), 0, false},
		{str("null"), 0, false},
		{str("true"), 0, false},
		{str(`[1, 2]`), 0, false},
		{str(`{"value": 1}`), 0, false},
		{str(`"abc"`), 0, false},
		{str(`"NaN"`), 0, false},
		{str("Infinity"), 0, false},
		{str("0x10"), 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumeric(tt.raw)
		name := "<nil>"
		if tt.raw != nil {
			name = *tt.raw
		}
		assert.Equal(t, tt.ok, ok, "raw=%s", name)
		assert.Equal(t, tt.want, got, "raw=%s", name)
	}
}

func TestTransferAmount_AmountUSD(t *testing.T) {
	a := &TransferAmount{ID: "0xabc_1", AmountRaw: str("10"), PriceRaw: str(`"2.5"`)}
	v, ok := a.AmountUSD()
	assert.True(t, ok)
	assert.Equal(t, 25.0, v)
	assert.Equal(t, "0xabc", a.TxHash())

	a.PriceRaw = str(`[2.5]`)
	_, ok = a.AmountUSD()
	assert.False(t, ok, "composite price must be absent, not zero")

	assert.Equal(t, "0xdef", (&TransferAmount{ID: "0xdef"}).TxHash())
}

func TestTransferAmount_Settled(t *testing.T) {
	assert.True(t, (&TransferAmount{Status: "executed", SimplifiedStatus: "received"}).Settled())
	assert.False(t, (&TransferAmount{Status: "executed", SimplifiedStatus: "failed"}).Settled())
	assert.False(t, (&TransferAmount{Status: "pending", SimplifiedStatus: "received"}).Settled())
}

func TestTotals_KPISummary(t *testing.T) {
	kpi, err := Totals{TransferCount: 2, UserCount: 2, VolumeUSD: 400, PricedCount: 2}.KPISummary()
	assert.NoError(t, err)
	assert.Equal(t, &KPISummary{
		TransferCount:        2,
		UserCount:            2,
		VolumeUSD:            400,
		AvgTransfersPerUser:  1,
		AvgVolumePerTransfer: 200,
		AvgVolumePerUser:     200,
	}, kpi)

	_, err = Totals{}.KPISummary()
	assert.ErrorIs(t, err, ErrDivisionUndefined)

	// Unpriced transfers are excluded from the per-transfer denominator.
	assert.Equal(t, 300.0, Totals{TransferCount: 3, UserCount: 1, VolumeUSD: 600, PricedCount: 2}.AvgVolumePerTransfer())
	assert.Equal(t, 0.0, Totals{TransferCount: 3, UserCount: 1}.AvgVolumePerTransfer())
}
