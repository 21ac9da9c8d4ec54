package database

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// NumericToDecimal converts a pgtype.Numeric to decimal, zero on any
// invalid value.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	s, ok := val.(string)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric converts a decimal to pgtype.Numeric at 2 decimal
// places, the precision every money column carries.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

// FloatToNumeric is DecimalToNumeric for float money already rounded by
// the pricing layer.
func FloatToNumeric(f float64) pgtype.Numeric {
	return DecimalToNumeric(decimal.NewFromFloat(f))
}

// NumericToFloat converts a pgtype.Numeric money value to float64.
func NumericToFloat(n pgtype.Numeric) float64 {
	return NumericToDecimal(n).InexactFloat64()
}
