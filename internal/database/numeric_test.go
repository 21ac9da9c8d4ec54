package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12.49")
	n := DecimalToNumeric(d)
	require.True(t, n.Valid)
	assert.True(t, NumericToDecimal(n).Equal(d))
}

func TestDecimalToNumericRoundsToCents(t *testing.T) {
	d := decimal.RequireFromString("2.999")
	got := NumericToDecimal(DecimalToNumeric(d))
	assert.Equal(t, "3.00", got.StringFixed(2))
}

func TestFloatToNumericAvoidsBinaryDrift(t *testing.T) {
	// 0.1+0.2 style inputs must land on exact cents, not 0.30000000000000004.
	n := FloatToNumeric(0.1 + 0.2)
	assert.Equal(t, "0.30", NumericToDecimal(n).StringFixed(2))
	assert.InDelta(t, 0.30, NumericToFloat(n), 1e-9)
}

func TestNumericToDecimalInvalid(t *testing.T) {
	assert.True(t, NumericToDecimal(pgtype.Numeric{}).IsZero())
}

func TestNumericToFloatZero(t *testing.T) {
	assert.Equal(t, 0.0, NumericToFloat(pgtype.Numeric{}))
}
