package service

import (
	"fmt"
	"math"
	"time"

	"towdispatch/internal/domain"
)

// SelectedService is one service surcharge the operator attached to a
// quote: a catalog reference plus the quantity (per-unit services) or
// the operator-entered amount (manual services).
type SelectedService struct {
	ServiceID    string
	Quantity     int
	ManualAmount int64
}

// PriceInput contains everything a price computation depends on. The
// evaluation time is part of the input so the computation stays pure.
type PriceInput struct {
	Mode         domain.PriceMode
	RouteMode    domain.RouteMode
	VehicleType  string
	VehicleCount int

	DistanceKm     float64
	StartFromBase  bool
	BaseToPickupKm float64

	At time.Time

	SelectedLocationIDs []string
	Services            []SelectedService

	// PriceItemID selects the catalog item for FIXED/CUSTOMER mode.
	PriceItemID string
	// CustomAmount is the operator-entered total for CUSTOM mode.
	CustomAmount int64
}

type priceFunc func(in PriceInput, rate *domain.RateConfig) (*domain.Breakdown, error)

// priceStrategies dispatches by price mode. Only RECOMMENDED runs the
// multi-factor computation; the other modes substitute a flat total.
var priceStrategies = map[domain.PriceMode]priceFunc{
	domain.PriceModeRecommended: computeRecommended,
	domain.PriceModeFixed:       computeFixed,
	domain.PriceModeCustomer:    computeCustomer,
	domain.PriceModeCustom:      computeCustom,
}

// ComputePrice computes a price breakdown from job attributes and a
// rate configuration. It is a pure function: no I/O, no clock reads,
// identical inputs yield identical breakdowns.
func ComputePrice(in PriceInput, rate *domain.RateConfig) (*domain.Breakdown, error) {
	strategy, ok := priceStrategies[in.Mode]
	if !ok {
		return nil, ErrUnknownPriceMode
	}
	return strategy(in, rate)
}

// roundHalfUp rounds to the nearest whole currency unit, halves up.
// Every intermediate amount is rounded independently; rounding is never
// deferred to the end.
func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

func computeRecommended(in PriceInput, rate *domain.RateConfig) (*domain.Breakdown, error) {
	b := &domain.Breakdown{Mode: domain.PriceModeRecommended}

	// 1. Base price.
	base, err := basePrice(in, rate)
	if err != nil {
		return nil, err
	}
	b.BasePrice = base
	b.Lines = append(b.Lines, domain.BreakdownLine{Label: "Base price", Amount: base})

	// 2. Distance price. The base-to-pickup leg counts only when the
	// truck starts from base, single-route mode only.
	totalKm := in.DistanceKm
	if in.StartFromBase && in.RouteMode == domain.RouteModeSingle {
		totalKm += in.BaseToPickupKm
	}
	distance := roundHalfUp(totalKm * rate.PricePerKm)
	b.DistancePrice = distance
	b.Lines = append(b.Lines, domain.BreakdownLine{
		Label:  fmt.Sprintf("Distance (%.1f km)", totalKm),
		Amount: distance,
	})

	// 3. Subtotal.
	b.Subtotal = base + distance

	// 4. Time surcharge: the single active surcharge with the maximum
	// percent. Ties resolve to the first in catalog order.
	if ts := maxActiveTimeSurcharge(rate.TimeSurcharges, in.At); ts != nil {
		amount := roundHalfUp(float64(b.Subtotal) * ts.Percent / 100)
		b.TimeSurcharge = amount
		b.Lines = append(b.Lines, domain.BreakdownLine{Label: ts.Label, Amount: amount})
	}

	// 5. Location surcharges: each selected one applies to the same
	// subtotal; they sum, they do not compound.
	for _, id := range in.SelectedLocationIDs {
		ls := findLocationSurcharge(rate.LocationSurcharges, id)
		if ls == nil {
			return nil, fmt.Errorf("%w: location %s", ErrUnknownSurcharge, id)
		}
		amount := roundHalfUp(float64(b.Subtotal) * ls.Percent / 100)
		b.LocationSurcharges += amount
		b.Lines = append(b.Lines, domain.BreakdownLine{Label: ls.Label, Amount: amount})
	}

	// 6. Service surcharges.
	for _, sel := range in.Services {
		svc := findServiceSurcharge(rate.ServiceSurcharges, sel.ServiceID)
		if svc == nil {
			return nil, fmt.Errorf("%w: service %s", ErrUnknownSurcharge, sel.ServiceID)
		}

		var amount int64
		switch svc.PriceType {
		case domain.ServicePriceFlat:
			amount = svc.Price
		case domain.ServicePricePerUnit:
			if sel.Quantity == 0 {
				// Unused unit service (waiting time with no waiting):
				// contributes nothing and gets no breakdown line.
				continue
			}
			amount = svc.Price * int64(sel.Quantity)
		case domain.ServicePriceManual:
			amount = sel.ManualAmount
		default:
			return nil, fmt.Errorf("%w: service %s", ErrUnknownSurcharge, sel.ServiceID)
		}

		b.Services += amount
		b.Lines = append(b.Lines, domain.BreakdownLine{Label: svc.Label, Amount: amount})
	}

	// 7. Pre-discount total.
	b.PreDiscountTotal = b.Subtotal + b.TimeSurcharge + b.LocationSurcharges + b.Services

	// 8. Customer discount.
	postDiscount := b.PreDiscountTotal
	if rate.CustomerPricing != nil && rate.CustomerPricing.DiscountPercent > 0 {
		b.Discount = roundHalfUp(float64(b.PreDiscountTotal) * rate.CustomerPricing.DiscountPercent / 100)
		postDiscount -= b.Discount
		b.Lines = append(b.Lines, domain.BreakdownLine{
			Label:  fmt.Sprintf("Customer discount (%.0f%%)", rate.CustomerPricing.DiscountPercent),
			Amount: -b.Discount,
		})
	}

	// 9. VAT, last, on the post-discount amount.
	b.VAT = roundHalfUp(float64(postDiscount) * rate.VATPercent / 100)
	b.Lines = append(b.Lines, domain.BreakdownLine{
		Label:  fmt.Sprintf("VAT (%.0f%%)", rate.VATPercent),
		Amount: b.VAT,
	})

	// 10. Total.
	b.Total = postDiscount + b.VAT
	return b, nil
}

func basePrice(in PriceInput, rate *domain.RateConfig) (int64, error) {
	if in.VehicleCount <= 0 {
		return 0, ErrNoVehicles
	}

	if in.RouteMode == domain.RouteModeMultiStop {
		// Multi-stop itineraries bill a flat base per towed vehicle;
		// the per-type lookup does not apply.
		return rate.PerVehicleBase * int64(in.VehicleCount), nil
	}

	price, ok := rate.BasePriceByVehicleType[in.VehicleType]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingVehicleType, in.VehicleType)
	}
	return price, nil
}

func maxActiveTimeSurcharge(surcharges []domain.TimeSurcharge, at time.Time) *domain.TimeSurcharge {
	minute := at.Hour()*60 + at.Minute()

	var best *domain.TimeSurcharge
	for i := range surcharges {
		s := &surcharges[i]
		if !s.ActiveAt(minute) {
			continue
		}
		if best == nil || s.Percent > best.Percent {
			best = s
		}
	}
	return best
}

func findLocationSurcharge(surcharges []domain.LocationSurcharge, id string) *domain.LocationSurcharge {
	for i := range surcharges {
		if surcharges[i].ID == id {
			return &surcharges[i]
		}
	}
	return nil
}

func findServiceSurcharge(surcharges []domain.ServiceSurcharge, id string) *domain.ServiceSurcharge {
	for i := range surcharges {
		if surcharges[i].ID == id {
			return &surcharges[i]
		}
	}
	return nil
}

func computeFixed(in PriceInput, rate *domain.RateConfig) (*domain.Breakdown, error) {
	return flatBreakdown(domain.PriceModeFixed, in.PriceItemID, rate)
}

func computeCustomer(in PriceInput, rate *domain.RateConfig) (*domain.Breakdown, error) {
	return flatBreakdown(domain.PriceModeCustomer, in.PriceItemID, rate)
}

// flatBreakdown resolves a catalog price item and uses its price as the
// total, bypassing the multi-factor computation entirely. FIXED mode
// reads the company catalog, CUSTOMER mode the customer's catalog; a
// missing item is an input error, not a zero price.
func flatBreakdown(mode domain.PriceMode, itemID string, rate *domain.RateConfig) (*domain.Breakdown, error) {
	catalog := rate.PriceItems
	if mode == domain.PriceModeCustomer {
		catalog = nil
		if rate.CustomerPricing != nil {
			catalog = rate.CustomerPricing.Items
		}
	}

	var item *domain.PriceItem
	for i := range catalog {
		if catalog[i].ID == itemID {
			item = &catalog[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPriceItem, itemID)
	}

	return &domain.Breakdown{
		Mode:  mode,
		Lines: []domain.BreakdownLine{{Label: item.Label, Amount: item.Price}},
		Total: item.Price,
	}, nil
}

func computeCustom(in PriceInput, _ *domain.RateConfig) (*domain.Breakdown, error) {
	if in.CustomAmount <= 0 {
		return nil, ErrInvalidCustomAmount
	}
	return &domain.Breakdown{
		Mode:  domain.PriceModeCustom,
		Lines: []domain.BreakdownLine{{Label: "Custom price", Amount: in.CustomAmount}},
		Total: in.CustomAmount,
	}, nil
}
