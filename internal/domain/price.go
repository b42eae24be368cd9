package domain

// PriceMode selects how a job's final price is produced.
type PriceMode string

const (
	// PriceModeRecommended runs the full multi-factor computation.
	PriceModeRecommended PriceMode = "RECOMMENDED"
	// PriceModeFixed substitutes a company catalog item's flat price.
	PriceModeFixed PriceMode = "FIXED"
	// PriceModeCustomer substitutes a customer catalog item's flat price.
	PriceModeCustomer PriceMode = "CUSTOMER"
	// PriceModeCustom substitutes an operator-entered amount.
	PriceModeCustom PriceMode = "CUSTOM"
)

// BreakdownLine is one named amount in a price breakdown. Amounts are
// whole currency units.
type BreakdownLine struct {
	Label  string
	Amount int64
}

// Breakdown is the result of a price computation. Lines preserve the
// order in which components were applied; the named fields mirror the
// aggregate steps so callers don't parse labels.
type Breakdown struct {
	Mode               PriceMode
	Lines              []BreakdownLine
	BasePrice          int64
	DistancePrice      int64
	Subtotal           int64
	TimeSurcharge      int64
	LocationSurcharges int64
	Services           int64
	PreDiscountTotal   int64
	Discount           int64
	VAT                int64
	Total              int64
}
