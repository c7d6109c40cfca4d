package amortization

import (
	"github.com/shopspring/decimal"
)

// PresetKey identifies a promotional offer by principal and installment count
type PresetKey struct {
	Principal    string // principal with 2 decimal places
	Installments int
}

// PresetTable maps known offers to literal installment values
type PresetTable map[PresetKey][]decimal.Decimal

func newPresetKey(principal decimal.Decimal, installments int) PresetKey {
	return PresetKey{Principal: principal.StringFixed(2), Installments: installments}
}

// Add registers an offer. Values are copied.
func (t PresetTable) Add(principal decimal.Decimal, values ...int64) {
	list := make([]decimal.Decimal, len(values))
	for i, v := range values {
		list[i] = decimal.NewFromInt(v)
	}
	t[newPresetKey(principal, len(values))] = list
}

// Lookup returns the installment values of an offer, if one matches
func (t PresetTable) Lookup(principal decimal.Decimal, installments int) ([]decimal.Decimal, bool) {
	values, ok := t[newPresetKey(principal, installments)]
	if !ok {
		return nil, false
	}
	out := make([]decimal.Decimal, len(values))
	copy(out, values)
	return out, true
}

// DefaultPresets returns the promotional offers available out of the box
func DefaultPresets() PresetTable {
	table := PresetTable{}
	table.Add(decimal.NewFromInt(500), 290, 250, 210)
	table.Add(decimal.NewFromInt(1000), 580, 500, 420)
	table.Add(decimal.NewFromInt(2000), 1160, 1000, 840)
	return table
}
