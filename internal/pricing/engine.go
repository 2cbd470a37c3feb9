package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components. Totals are derived on
// every read and never cached.
type Summary struct {
	Subtotal    Money `json:"subtotal"`
	DeliveryFee Money `json:"deliveryFee"`
	Total       Money `json:"total"`
}

// Compute calculates cart totals. The delivery fee is a deployment constant,
// not a per-order decision; Total is always Subtotal plus the fee.
func Compute(items []Item, deliveryFee Money) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 || it.UnitPrice < 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if deliveryFee < 0 {
		deliveryFee = 0
	}
	return Summary{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Total:       subtotal + deliveryFee,
	}
}
