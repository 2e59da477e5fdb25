// Package pricing implements the purchase order financial pipeline. The
// computation is deterministic and side-effect free; the same inputs always
// produce the same totals. Order matters: tax applies to the subtotal,
// discount applies to the post-tax amount.
package pricing

import (
	"fmt"

	"nimbus-backend/internal/model"

	"github.com/shopspring/decimal"
)

// Tolerance absorbs rounding drift when comparing paid amounts against the
// grand total.
var Tolerance = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// Line is one priced order line.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Total returns quantity times unit price.
func (l Line) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Inputs are the financial knobs of a purchase order.
type Inputs struct {
	Lines              []Line
	TaxOption          string
	TaxPercentage      *decimal.Decimal
	DiscountType       string
	DiscountPercentage *decimal.Decimal
	DiscountNominal    *decimal.Decimal
	PaymentMethod      string
	PaidAmount         decimal.Decimal
	DPPercentage       *decimal.Decimal
	DPAmount           *decimal.Decimal
}

// Totals is the frozen output of the pipeline.
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	GrandTotal     decimal.Decimal
	PaidAmount     decimal.Decimal
	Outstanding    decimal.Decimal
	DPPercentage   *decimal.Decimal
	DPAmount       *decimal.Decimal
}

// Calculate runs the pipeline: subtotal, then tax on the subtotal, then
// discount on the post-tax amount, then grand total and outstanding.
// Inputs must have passed Validate; Calculate itself never fails.
func Calculate(in Inputs) Totals {
	subtotal := decimal.Zero
	for _, line := range in.Lines {
		subtotal = subtotal.Add(line.Total())
	}

	tax := decimal.Zero
	if in.TaxOption == model.TaxOptionApply && in.TaxPercentage != nil {
		tax = subtotal.Mul(*in.TaxPercentage).Div(hundred)
	}
	afterTax := subtotal.Add(tax)

	discount := decimal.Zero
	switch in.DiscountType {
	case model.DiscountPercentage:
		if in.DiscountPercentage != nil {
			discount = afterTax.Mul(*in.DiscountPercentage).Div(hundred)
		}
	case model.DiscountNominal:
		if in.DiscountNominal != nil {
			discount = *in.DiscountNominal
		}
	}

	grand := afterTax.Sub(discount)

	totals := Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		GrandTotal:     grand,
	}
	totals.applyPaymentMethod(in)
	return totals
}

// applyPaymentMethod settles paid/outstanding and mirrors the down payment
// fields against the grand total.
func (t *Totals) applyPaymentMethod(in Inputs) {
	switch in.PaymentMethod {
	case model.PaymentAdvance:
		// The caller states what was paid up front; CheckSettlement
		// holds it against the grand total.
		t.PaidAmount = in.PaidAmount
		t.Outstanding = t.GrandTotal.Sub(t.PaidAmount)
	case model.PaymentAfterDelivery:
		t.PaidAmount = decimal.Zero
		t.Outstanding = t.GrandTotal
	case model.PaymentDownPayment:
		pct, amount := reconcileDownPayment(t.GrandTotal, in.DPPercentage, in.DPAmount)
		t.DPPercentage = pct
		t.DPAmount = amount
		if amount != nil {
			t.PaidAmount = *amount
		}
		t.Outstanding = t.GrandTotal.Sub(t.PaidAmount)
	}
}

// reconcileDownPayment keeps percentage and amount mirrored: whichever was
// supplied drives the other.
func reconcileDownPayment(grand decimal.Decimal, pct, amount *decimal.Decimal) (*decimal.Decimal, *decimal.Decimal) {
	switch {
	case pct != nil:
		derived := grand.Mul(*pct).Div(hundred)
		return pct, &derived
	case amount != nil && grand.IsPositive():
		derived := amount.Mul(hundred).Div(grand)
		return &derived, amount
	default:
		return pct, amount
	}
}

// Validate collects every violation in the financial inputs without
// stopping at the first. An empty result means Calculate may run.
func Validate(in Inputs) []string {
	var violations []string

	if len(in.Lines) == 0 {
		violations = append(violations, "at least one line item is required")
	}
	for i, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			violations = append(violations, fmt.Sprintf("line %d: quantity must be greater than zero", i+1))
		}
		if !line.UnitPrice.IsPositive() {
			violations = append(violations, fmt.Sprintf("line %d: unit price must be greater than zero", i+1))
		}
	}

	switch in.TaxOption {
	case model.TaxOptionNone:
	case model.TaxOptionApply:
		if in.TaxPercentage == nil {
			violations = append(violations, "tax percentage is required when tax is applied")
		} else if in.TaxPercentage.IsNegative() || in.TaxPercentage.GreaterThan(hundred) {
			violations = append(violations, "tax percentage must be between 0 and 100")
		}
	default:
		violations = append(violations, fmt.Sprintf("unknown tax option %q", in.TaxOption))
	}

	switch in.DiscountType {
	case model.DiscountNone:
	case model.DiscountPercentage:
		if in.DiscountPercentage == nil {
			violations = append(violations, "discount percentage is required for a percentage discount")
		} else if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(hundred) {
			violations = append(violations, "discount percentage must be between 0 and 100")
		}
	case model.DiscountNominal:
		if in.DiscountNominal == nil {
			violations = append(violations, "discount amount is required for a nominal discount")
		} else if in.DiscountNominal.IsNegative() {
			violations = append(violations, "discount amount cannot be negative")
		}
	default:
		violations = append(violations, fmt.Sprintf("unknown discount type %q", in.DiscountType))
	}

	violations = append(violations, validatePaymentMethod(in)...)
	return violations
}

func validatePaymentMethod(in Inputs) []string {
	var violations []string
	switch in.PaymentMethod {
	case model.PaymentAdvance, model.PaymentAfterDelivery:
	case model.PaymentDownPayment:
		if in.DPPercentage == nil && in.DPAmount == nil {
			violations = append(violations, "down payment requires a percentage or an amount")
		}
		if in.DPPercentage != nil {
			if !in.DPPercentage.IsPositive() || in.DPPercentage.GreaterThan(hundred) {
				violations = append(violations, "down payment percentage must be greater than 0 and at most 100")
			}
		}
		if in.DPAmount != nil && !in.DPAmount.IsPositive() {
			violations = append(violations, "down payment amount must be greater than zero")
		}
	default:
		violations = append(violations, fmt.Sprintf("unknown payment method %q", in.PaymentMethod))
	}
	return violations
}

// CheckSettlement verifies the computed totals against the payment method
// bounds: advance payment must cover the grand total within Tolerance, a
// down payment must stay within (0, grand total].
func CheckSettlement(method string, totals Totals) []string {
	var violations []string
	switch method {
	case model.PaymentAdvance:
		if totals.PaidAmount.Sub(totals.GrandTotal).Abs().GreaterThan(Tolerance) {
			violations = append(violations, "advance payment must equal the grand total")
		}
	case model.PaymentDownPayment:
		if !totals.PaidAmount.IsPositive() {
			violations = append(violations, "down payment must be greater than zero")
		}
		if totals.PaidAmount.GreaterThan(totals.GrandTotal.Add(Tolerance)) {
			violations = append(violations, "down payment cannot exceed the grand total")
		}
	}
	return violations
}
