package pricing

import (
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
)

// EvaluateQuantityBreak returns the break adjustment when qty reaches the
// configured minimum and the break carries a value. A MinQty below one
// means no break is configured.
func EvaluateQuantityBreak(qb model.QuantityBreak, qty int) (model.Adjustment, bool) {
	if qb.MinQty < 1 || qty < qb.MinQty {
		return model.Adjustment{}, false
	}
	if !qb.Adjustment.Present() {
		return model.Adjustment{}, false
	}
	return qb.Adjustment, true
}
