package config

import (
	"encoding/json"
	"fmt"
	"os"

	"probeword/internal/constants"
)

// Config is the experiment policy. Everything here is fixed for the lifetime
// of a session; there is no way to change policy mid-survey.
type Config struct {
	RandomizeOrder       bool    `json:"randomize_order"`
	NarrowRadius         int     `json:"narrow_radius"`
	WideRadius           int     `json:"wide_radius"`
	NarrowPoints         int     `json:"narrow_points"`
	WidePoints           int     `json:"wide_points"`
	PointsToCurrencyRate float64 `json:"points_to_currency_rate"`
	BaseFee              float64 `json:"base_fee"`
	RequireWeChatID      bool    `json:"require_wechat_id"`
	ConsentEnabled       bool    `json:"consent_enabled"`
	QuestionFile         string  `json:"question_file,omitempty"`
}

// Default returns the built-in policy matching the original instrument.
func Default() Config {
	return Config{
		RandomizeOrder:       constants.DefaultRandomizeOrder,
		NarrowRadius:         constants.DefaultNarrowRadius,
		WideRadius:           constants.DefaultWideRadius,
		NarrowPoints:         constants.DefaultNarrowPoints,
		WidePoints:           constants.DefaultWidePoints,
		PointsToCurrencyRate: constants.DefaultPointsRate,
		BaseFee:              constants.DefaultBaseFee,
		RequireWeChatID:      false,
		ConsentEnabled:       constants.DefaultConsentEnabled,
	}
}

// Load reads an experiment config file, layering it over the defaults. A
// missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("experiment config not found: %s", path)
		}
		return cfg, fmt.Errorf("failed to read experiment config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse experiment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid experiment config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects policies that would make the interval computation or the
// payout arithmetic meaningless.
func (c Config) Validate() error {
	if c.NarrowRadius <= 0 || c.WideRadius <= 0 {
		return fmt.Errorf("band radii must be positive (narrow=%d wide=%d)", c.NarrowRadius, c.WideRadius)
	}
	if c.NarrowRadius >= c.WideRadius {
		return fmt.Errorf("narrow radius (%d) must be smaller than wide radius (%d)", c.NarrowRadius, c.WideRadius)
	}
	if c.NarrowPoints < 0 || c.WidePoints < 0 {
		return fmt.Errorf("band points must be non-negative (narrow=%d wide=%d)", c.NarrowPoints, c.WidePoints)
	}
	if c.PointsToCurrencyRate < 0 {
		return fmt.Errorf("points_to_currency_rate must be non-negative (got %g)", c.PointsToCurrencyRate)
	}
	if c.BaseFee < 0 {
		return fmt.Errorf("base_fee must be non-negative (got %g)", c.BaseFee)
	}
	return nil
}
