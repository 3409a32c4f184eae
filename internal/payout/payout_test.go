package payout

import (
	"strings"
	"testing"

	"probeword/internal/config"
	"probeword/internal/models"
)

func TestScheduleFromDefaults(t *testing.T) {
	s := FromConfig(config.Default())

	if got := s.Points(models.BandNarrow); got != 20 {
		t.Errorf("Points(narrow) = %d, want 20", got)
	}
	if got := s.Points(models.BandWide); got != 10 {
		t.Errorf("Points(wide) = %d, want 10", got)
	}
	if got := s.Reward(models.BandNarrow); got != 14.0 {
		t.Errorf("Reward(narrow) = %g, want 14", got)
	}
	if got := s.Reward(models.BandWide); got != 7.0 {
		t.Errorf("Reward(wide) = %g, want 7", got)
	}
}

func TestBandLabel(t *testing.T) {
	s := FromConfig(config.Default())

	narrow := s.BandLabel(models.BandNarrow, 3)
	if !strings.Contains(narrow, "Narrow") || !strings.Contains(narrow, "±3") || !strings.Contains(narrow, "14") {
		t.Errorf("narrow label = %q", narrow)
	}

	wide := s.BandLabel(models.BandWide, 6)
	if !strings.Contains(wide, "Wide") || !strings.Contains(wide, "±6") || !strings.Contains(wide, "7") {
		t.Errorf("wide label = %q", wide)
	}
}
