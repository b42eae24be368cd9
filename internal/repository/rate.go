package repository

import (
	"context"

	"towdispatch/internal/domain"
)

// RateProvider supplies the rate configuration for a company.
type RateProvider interface {
	GetRateConfig(ctx context.Context, companyID string) (*domain.RateConfig, error)
}
