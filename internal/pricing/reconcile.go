package pricing

import (
	"github.com/posgate/api/internal/apperr"
	"github.com/posgate/api/internal/model"
	"github.com/shopspring/decimal"
)

// Reconciler checks the submitted money summary against line-item math.
type Reconciler struct {
	tolerance decimal.Decimal
}

// NewReconciler builds a Reconciler with the given absolute tolerance,
// e.g. 0.05 to absorb upstream float rounding.
func NewReconciler(tolerance float64) *Reconciler {
	return &Reconciler{tolerance: decimal.NewFromFloat(tolerance)}
}

// Reconcile recomputes every line extension and the order totals.
//
// Each item's TotalPrice is overwritten with
// quantity × (unitPrice + Σ modifier.price × modifier.quantity), rounded
// to cents. The recomputed subtotal and total are compared to the
// submitted values; disagreement beyond tolerance fails the order with a
// TotalsMismatchError carrying both sides of each comparison. A zero
// submitted subtotal or total is treated as omitted and replaced by the
// computed value rather than flagged.
func (r *Reconciler) Reconcile(order *model.Order) error {
	subtotal := decimal.Zero
	for i := range order.Items {
		item := &order.Items[i]
		ext := lineExtension(item)
		item.TotalPrice = ext.InexactFloat64()
		subtotal = subtotal.Add(ext)
	}
	subtotal = subtotal.Round(2)

	t := &order.Totals
	total := subtotal.
		Add(decimal.NewFromFloat(t.Tax)).
		Add(decimal.NewFromFloat(t.Tip)).
		Add(decimal.NewFromFloat(t.DeliveryFee)).
		Sub(decimal.NewFromFloat(t.Discount)).
		Round(2)

	submittedSubtotal := decimal.NewFromFloat(t.Subtotal)
	submittedTotal := decimal.NewFromFloat(t.Total)

	subtotalOK := submittedSubtotal.IsZero() || subtotal.Sub(submittedSubtotal).Abs().LessThanOrEqual(r.tolerance)
	totalOK := submittedTotal.IsZero() || total.Sub(submittedTotal).Abs().LessThanOrEqual(r.tolerance)

	if !subtotalOK || !totalOK {
		return &apperr.TotalsMismatchError{
			Subtotal: mismatch(subtotal, submittedSubtotal),
			Total:    mismatch(total, submittedTotal),
		}
	}

	t.Subtotal = subtotal.InexactFloat64()
	t.Total = total.InexactFloat64()
	return nil
}

func lineExtension(item *model.OrderItem) decimal.Decimal {
	unit := decimal.NewFromFloat(item.UnitPrice)
	for _, mod := range item.Modifiers {
		qty := mod.Quantity
		if qty <= 0 {
			qty = 1
		}
		unit = unit.Add(decimal.NewFromFloat(mod.Price).Mul(decimal.NewFromInt(int64(qty))))
	}
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
}

func mismatch(calculated, submitted decimal.Decimal) apperr.MismatchDetail {
	return apperr.MismatchDetail{
		Calculated: calculated.InexactFloat64(),
		Submitted:  submitted.InexactFloat64(),
		Diff:       calculated.Sub(submitted).Abs().InexactFloat64(),
	}
}
