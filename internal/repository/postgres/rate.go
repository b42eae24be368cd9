package postgres

import (
	"context"
	"database/sql"
	"errors"

	"towdispatch/internal/domain"
	"towdispatch/internal/repository"
)

// RateRepository is a PostgreSQL implementation of repository.RateProvider.
type RateRepository struct {
	q Querier
}

// NewRateRepository creates a new PostgreSQL rate repository.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{q: db}
}

// GetRateConfig loads the full rate configuration for a company: base
// prices, per-km rate, VAT, surcharge catalogs and optional customer
// pricing.
func (r *RateRepository) GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error) {
	cfg := &domain.RateConfig{
		CompanyID:              companyID,
		BasePriceByVehicleType: make(map[string]int64),
	}

	query := `SELECT per_vehicle_base, price_per_km, vat_percent FROM company_rates WHERE company_id = $1`
	err := r.q.QueryRowContext(ctx, query, companyID).Scan(&cfg.PerVehicleBase, &cfg.PricePerKm, &cfg.VATPercent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadBasePrices(ctx, companyID, cfg); err != nil {
		return nil, err
	}
	if err := r.loadTimeSurcharges(ctx, companyID, cfg); err != nil {
		return nil, err
	}
	if err := r.loadLocationSurcharges(ctx, companyID, cfg); err != nil {
		return nil, err
	}
	if err := r.loadServiceSurcharges(ctx, companyID, cfg); err != nil {
		return nil, err
	}
	if err := r.loadPriceItems(ctx, companyID, cfg); err != nil {
		return nil, err
	}
	if err := r.loadCustomerPricing(ctx, companyID, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (r *RateRepository) loadBasePrices(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	rows, err := r.q.QueryContext(ctx,
		`SELECT vehicle_type, price FROM base_prices WHERE company_id = $1`, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var vt string
		var price int64
		if err := rows.Scan(&vt, &price); err != nil {
			return err
		}
		cfg.BasePriceByVehicleType[vt] = price
	}
	return rows.Err()
}

func (r *RateRepository) loadTimeSurcharges(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, label, percent, from_minute, to_minute, active
		FROM time_surcharges WHERE company_id = $1 ORDER BY position
	`, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.TimeSurcharge
		if err := rows.Scan(&s.ID, &s.Label, &s.Percent, &s.From, &s.To, &s.Active); err != nil {
			return err
		}
		cfg.TimeSurcharges = append(cfg.TimeSurcharges, s)
	}
	return rows.Err()
}

func (r *RateRepository) loadLocationSurcharges(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, label, percent
		FROM location_surcharges WHERE company_id = $1 ORDER BY position
	`, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.LocationSurcharge
		if err := rows.Scan(&s.ID, &s.Label, &s.Percent); err != nil {
			return err
		}
		cfg.LocationSurcharges = append(cfg.LocationSurcharges, s)
	}
	return rows.Err()
}

func (r *RateRepository) loadServiceSurcharges(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, label, price_type, price
		FROM service_surcharges WHERE company_id = $1 ORDER BY position
	`, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.ServiceSurcharge
		if err := rows.Scan(&s.ID, &s.Label, &s.PriceType, &s.Price); err != nil {
			return err
		}
		cfg.ServiceSurcharges = append(cfg.ServiceSurcharges, s)
	}
	return rows.Err()
}

func (r *RateRepository) loadPriceItems(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, label, price
		FROM price_items WHERE company_id = $1 ORDER BY position
	`, companyID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.PriceItem
		if err := rows.Scan(&item.ID, &item.Label, &item.Price); err != nil {
			return err
		}
		cfg.PriceItems = append(cfg.PriceItems, item)
	}
	return rows.Err()
}

func (r *RateRepository) loadCustomerPricing(ctx context.Context, companyID string, cfg *domain.RateConfig) error {
	var cp domain.CustomerPricing
	err := r.q.QueryRowContext(ctx, `
		SELECT customer_id, discount_percent
		FROM customer_pricing WHERE company_id = $1
	`, companyID).Scan(&cp.CustomerID, &cp.DiscountPercent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, label, price
		FROM customer_price_items WHERE customer_id = $1 ORDER BY position
	`, cp.CustomerID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.PriceItem
		if err := rows.Scan(&item.ID, &item.Label, &item.Price); err != nil {
			return err
		}
		cp.Items = append(cp.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cfg.CustomerPricing = &cp
	return nil
}
