package models

import "fmt"

// Band is the chosen interval half-width category. Narrow pays more but is
// harder to hit.
type Band string

const (
	BandNarrow Band = "narrow"
	BandWide   Band = "wide"
)

// ParseBand converts a raw string into a Band. Anything outside the closed set
// is an error, never a silent fallthrough.
func ParseBand(s string) (Band, error) {
	switch Band(s) {
	case BandNarrow, BandWide:
		return Band(s), nil
	default:
		return "", fmt.Errorf("invalid band %q (must be %q or %q)", s, BandNarrow, BandWide)
	}
}

// ConsentChoice is the participant's data-sharing selection on the consent
// screen.
type ConsentChoice string

const (
	ConsentNoShare      ConsentChoice = "no_share"
	ConsentDeidentified ConsentChoice = "deidentified"
	ConsentIdentifiable ConsentChoice = "identifiable"
)

// ParseConsentChoice converts a raw string into a ConsentChoice.
func ParseConsentChoice(s string) (ConsentChoice, error) {
	switch ConsentChoice(s) {
	case ConsentNoShare, ConsentDeidentified, ConsentIdentifiable:
		return ConsentChoice(s), nil
	default:
		return "", fmt.Errorf("invalid consent choice %q", s)
	}
}

// Stage is a screen in the survey's linear flow.
type Stage int

const (
	StageConsent Stage = iota
	StageInstructions
	StageSelfReport
	StagePrediction
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageConsent:
		return "consent"
	case StageInstructions:
		return "instructions"
	case StageSelfReport:
		return "self-report"
	case StagePrediction:
		return "prediction"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}
