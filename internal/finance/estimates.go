// Package finance produces deterministic per-season cost and revenue
// estimates from the farm profile. All figures are rough planning numbers,
// not accounting data.
package finance

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
)

// Estimate is the per-season projection for one farm.
type Estimate struct {
	AreaHectares     decimal.Decimal `json:"area_hectares"`
	SeedCost         decimal.Decimal `json:"seed_cost"`
	IrrigationCost   decimal.Decimal `json:"irrigation_cost"`
	FertilizerCost   decimal.Decimal `json:"fertilizer_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	ProjectedRevenue decimal.Decimal `json:"projected_revenue"`
	ProjectedMargin  decimal.Decimal `json:"projected_margin"`
	Currency         string          `json:"currency"`
}

// cropRates holds the fixed per-hectare planning rates. Keys are matched
// case-insensitively against the profile's current crops.
type cropRate struct {
	seed    string
	revenue string
}

var cropRates = map[string]cropRate{
	"tomatoes": {seed: "320", revenue: "5200"},
	"corn":     {seed: "210", revenue: "2100"},
	"wheat":    {seed: "140", revenue: "1400"},
	"soybeans": {seed: "190", revenue: "1700"},
	"lettuce":  {seed: "260", revenue: "3800"},
	"potatoes": {seed: "450", revenue: "3400"},
}

var defaultRate = cropRate{seed: "200", revenue: "2000"}

var (
	irrigationPerHectare = decimal.RequireFromString("180")
	fertilizerPerHectare = decimal.RequireFromString("240")
	acresPerHectare      = decimal.RequireFromString("0.404686")
	sqMetersPerHectare   = decimal.RequireFromString("0.0001")
)

// EstimateFor computes the projection for one profile. Without an area
// measurement every figure is zero; crop selection only scales the seed and
// revenue lines.
func EstimateFor(p *profile.FarmProfile) Estimate {
	est := Estimate{Currency: "USD"}
	if p == nil || p.Area == nil || p.Area.Value <= 0 {
		return est
	}

	hectares := toHectares(p.Area)
	est.AreaHectares = hectares.Round(4)

	crops := p.Collections[enums.CollectionCurrentCrops]
	if len(crops) == 0 {
		crops = []string{""}
	}
	// Area splits evenly across selected crops.
	share := hectares.Div(decimal.NewFromInt(int64(len(crops))))

	seed := decimal.Zero
	revenue := decimal.Zero
	for _, crop := range crops {
		rate, ok := cropRates[strings.ToLower(strings.TrimSpace(crop))]
		if !ok {
			rate = defaultRate
		}
		seed = seed.Add(share.Mul(decimal.RequireFromString(rate.seed)))
		revenue = revenue.Add(share.Mul(decimal.RequireFromString(rate.revenue)))
	}

	est.SeedCost = seed.Round(2)
	est.IrrigationCost = hectares.Mul(irrigationPerHectare).Round(2)
	est.FertilizerCost = hectares.Mul(fertilizerPerHectare).Round(2)
	est.TotalCost = est.SeedCost.Add(est.IrrigationCost).Add(est.FertilizerCost)
	est.ProjectedRevenue = revenue.Round(2)
	est.ProjectedMargin = est.ProjectedRevenue.Sub(est.TotalCost)
	return est
}

func toHectares(area *profile.AreaMeasurement) decimal.Decimal {
	value := decimal.NewFromFloat(area.Value)
	switch area.Unit {
	case enums.AreaUnitAcres:
		return value.Mul(acresPerHectare)
	case enums.AreaUnitSquareMeters:
		return value.Mul(sqMetersPerHectare)
	default:
		return value
	}
}
