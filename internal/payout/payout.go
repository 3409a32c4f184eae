package payout

import (
	"fmt"

	"probeword/internal/config"
	"probeword/internal/constants"
	"probeword/internal/models"
)

// Schedule is the incentive arithmetic for the prediction stage: points per
// band choice, the points-to-currency rate, and the unconditional base fee.
type Schedule struct {
	NarrowPoints int
	WidePoints   int
	Rate         float64
	BaseFee      float64
}

func FromConfig(cfg config.Config) Schedule {
	return Schedule{
		NarrowPoints: cfg.NarrowPoints,
		WidePoints:   cfg.WidePoints,
		Rate:         cfg.PointsToCurrencyRate,
		BaseFee:      cfg.BaseFee,
	}
}

// Points returns the points awarded for a hit with the given band.
func (s Schedule) Points(band models.Band) int {
	if band == models.BandNarrow {
		return s.NarrowPoints
	}
	return s.WidePoints
}

// Reward converts a band's points into currency.
func (s Schedule) Reward(band models.Band) float64 {
	return float64(s.Points(band)) * s.Rate
}

// BandLabel renders the option text for a band, radius included, as shown on
// the prediction screen.
func (s Schedule) BandLabel(band models.Band, radius int) string {
	name := "Wide"
	if band == models.BandNarrow {
		name = "Narrow"
	}
	return fmt.Sprintf("%s (±%d): %.0f %s per hit", name, radius, s.Reward(band), constants.Currency)
}
