package scylla

import (
	"github.com/shopspring/decimal"
	"gopkg.in/inf.v0"
)

// Les montants sont stockés en colonnes CQL decimal, que gocql lit et écrit en *inf.Dec.

func toCQLDecimal(d decimal.Decimal) *inf.Dec {
	return inf.NewDecBig(d.Coefficient(), inf.Scale(-d.Exponent()))
}

func fromCQLDecimal(x *inf.Dec) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x.UnscaledBig(), -int32(x.Scale()))
}
