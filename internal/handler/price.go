package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"towdispatch/internal/domain"
	"towdispatch/internal/service"
)

// PriceHandler handles HTTP requests for price quotes.
type PriceHandler struct {
	rateService *service.RateService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(rateService *service.RateService) *PriceHandler {
	return &PriceHandler{rateService: rateService}
}

// SelectedServiceRequest is one selected service surcharge.
type SelectedServiceRequest struct {
	ServiceID    string `json:"service_id" binding:"required"`
	Quantity     int    `json:"quantity"`
	ManualAmount int64  `json:"manual_amount"`
}

// QuoteRequest is the body for POST /v1/price/quote.
type QuoteRequest struct {
	CompanyID           string                   `json:"company_id" binding:"required"`
	Mode                string                   `json:"mode" binding:"required"`
	RouteMode           string                   `json:"route_mode"`
	VehicleType         string                   `json:"vehicle_type"`
	VehicleCount        int                      `json:"vehicle_count"`
	DistanceKm          float64                  `json:"distance_km"`
	StartFromBase       bool                     `json:"start_from_base"`
	BaseToPickupKm      float64                  `json:"base_to_pickup_km"`
	At                  string                   `json:"at"` // RFC 3339; empty means now
	SelectedLocationIDs []string                 `json:"selected_location_ids"`
	Services            []SelectedServiceRequest `json:"services"`
	PriceItemID         string                   `json:"price_item_id"`
	CustomAmount        int64                    `json:"custom_amount"`
}

// BreakdownLineResponse is one line of a price breakdown.
type BreakdownLineResponse struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// QuoteResponse is the HTTP response for a price quote.
type QuoteResponse struct {
	Mode               string                  `json:"mode"`
	Lines              []BreakdownLineResponse `json:"lines"`
	BasePrice          int64                   `json:"base_price"`
	DistancePrice      int64                   `json:"distance_price"`
	Subtotal           int64                   `json:"subtotal"`
	TimeSurcharge      int64                   `json:"time_surcharge"`
	LocationSurcharges int64                   `json:"location_surcharges"`
	Services           int64                   `json:"services"`
	PreDiscountTotal   int64                   `json:"pre_discount_total"`
	Discount           int64                   `json:"discount"`
	VAT                int64                   `json:"vat"`
	Total              int64                   `json:"total"`
}

// Quote handles POST /v1/price/quote
func (h *PriceHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrUnknownPriceMode)
		return
	}

	at := time.Now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			respondError(c, service.ErrUnknownPriceMode)
			return
		}
		at = parsed
	}

	rate, err := h.rateService.GetRateConfig(c.Request.Context(), req.CompanyID)
	if err != nil {
		respondError(c, err)
		return
	}

	routeMode := domain.RouteMode(req.RouteMode)
	if routeMode == "" {
		routeMode = domain.RouteModeSingle
	}

	input := service.PriceInput{
		Mode:                domain.PriceMode(req.Mode),
		RouteMode:           routeMode,
		VehicleType:         req.VehicleType,
		VehicleCount:        req.VehicleCount,
		DistanceKm:          req.DistanceKm,
		StartFromBase:       req.StartFromBase,
		BaseToPickupKm:      req.BaseToPickupKm,
		At:                  at,
		SelectedLocationIDs: req.SelectedLocationIDs,
		PriceItemID:         req.PriceItemID,
		CustomAmount:        req.CustomAmount,
	}
	for _, s := range req.Services {
		input.Services = append(input.Services, service.SelectedService{
			ServiceID:    s.ServiceID,
			Quantity:     s.Quantity,
			ManualAmount: s.ManualAmount,
		})
	}

	breakdown, err := service.ComputePrice(input, rate)
	if err != nil {
		respondError(c, err)
		return
	}

	response := QuoteResponse{
		Mode:               string(breakdown.Mode),
		BasePrice:          breakdown.BasePrice,
		DistancePrice:      breakdown.DistancePrice,
		Subtotal:           breakdown.Subtotal,
		TimeSurcharge:      breakdown.TimeSurcharge,
		LocationSurcharges: breakdown.LocationSurcharges,
		Services:           breakdown.Services,
		PreDiscountTotal:   breakdown.PreDiscountTotal,
		Discount:           breakdown.Discount,
		VAT:                breakdown.VAT,
		Total:              breakdown.Total,
	}
	for _, line := range breakdown.Lines {
		response.Lines = append(response.Lines, BreakdownLineResponse{Label: line.Label, Amount: line.Amount})
	}

	respondJSON(c, http.StatusOK, response)
}
