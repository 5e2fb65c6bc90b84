package pricing

import (
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply transforms base by the adjustment. It reports false and returns
// base untouched when the adjustment has no usable value.
// Results are not clamped, so a large fixed reduction can go negative.
func Apply(a model.Adjustment, base decimal.Decimal) (decimal.Decimal, bool) {
	if !a.Present() {
		return base, false
	}
	v := a.Value.Decimal

	switch a.Kind {
	case model.KindPercent:
		return base.Mul(decimal.NewFromInt(1).Sub(v.Div(hundred))), true
	case model.KindPercentAdd:
		return base.Mul(decimal.NewFromInt(1).Add(v.Div(hundred))), true
	case model.KindFixed:
		return base.Sub(v), true
	case model.KindFixedAdd:
		return base.Add(v), true
	case model.KindFixedSet:
		return v, true
	default:
		return base, false
	}
}
