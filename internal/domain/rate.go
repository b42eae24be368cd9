package domain

// ServicePriceType determines how a service surcharge is priced.
type ServicePriceType string

const (
	ServicePriceFlat    ServicePriceType = "FLAT"
	ServicePricePerUnit ServicePriceType = "PER_UNIT"
	ServicePriceManual  ServicePriceType = "MANUAL"
)

// TimeSurcharge is a percentage surcharge active during a daily time
// window. From/To are minutes since midnight; a window with To < From
// wraps past midnight (e.g. a night rate).
type TimeSurcharge struct {
	ID      string
	Label   string
	Percent float64
	From    int
	To      int
	Active  bool
}

// ActiveAt reports whether the surcharge window covers the given minute
// of the day.
func (s TimeSurcharge) ActiveAt(minuteOfDay int) bool {
	if !s.Active {
		return false
	}
	if s.From <= s.To {
		return minuteOfDay >= s.From && minuteOfDay < s.To
	}
	// Window wraps past midnight.
	return minuteOfDay >= s.From || minuteOfDay < s.To
}

// LocationSurcharge is a percentage surcharge applied when the operator
// explicitly selects it for a job (e.g. restricted zone, underground
// garage).
type LocationSurcharge struct {
	ID      string
	Label   string
	Percent float64
}

// ServiceSurcharge is an extra billable service from the company's
// catalog (winching, wheel dolly, waiting time).
type ServiceSurcharge struct {
	ID        string
	Label     string
	PriceType ServicePriceType
	Price     int64 // flat price or per-unit price; unused for MANUAL
}

// PriceItem is a catalog entry with a fixed total, used by the FIXED and
// CUSTOMER price modes.
type PriceItem struct {
	ID    string
	Label string
	Price int64
}

// CustomerPricing holds customer-specific pricing terms.
type CustomerPricing struct {
	CustomerID      string
	DiscountPercent float64
	Items           []PriceItem
}

// RateConfig is a company's pricing catalog: base prices, per-km rate,
// VAT and the active surcharge catalogs.
type RateConfig struct {
	CompanyID              string
	BasePriceByVehicleType map[string]int64
	PerVehicleBase         int64 // multi-stop mode: flat base per towed vehicle
	PricePerKm             float64
	VATPercent             float64
	TimeSurcharges         []TimeSurcharge
	LocationSurcharges     []LocationSurcharge
	ServiceSurcharges      []ServiceSurcharge
	PriceItems             []PriceItem // company catalog, FIXED mode
	CustomerPricing        *CustomerPricing
}
