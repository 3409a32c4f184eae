package session

import (
	"fmt"
	"strconv"
	"time"

	"probeword/internal/constants"
	"probeword/internal/models"
)

// Interval maps a prediction and a band choice to the committed [low, high]
// range, clamped to the answer scale. Pure and total: every in-range input has
// a result and nothing else changes.
func Interval(pred int, band models.Band, narrowRadius, wideRadius int) (low, high int) {
	half := narrowRadius
	if band == models.BandWide {
		half = wideRadius
	}
	low = pred - half
	if low < constants.ScaleMin {
		low = constants.ScaleMin
	}
	high = pred + half
	if high > constants.ScaleMax {
		high = constants.ScaleMax
	}
	return low, high
}

// Record accumulates one participant's answers field by field as the screens
// advance. It is not safe for concurrent use; a session is one serial
// interaction stream.
type Record struct {
	participantID string
	timestamp     time.Time
	wechatID      string

	consentEnabled   bool
	consentConfirmed bool
	consentChoice    models.ConsentChoice

	narrowRadius int
	wideRadius   int

	numQuestions int
	selfReports  map[int]int
	predictions  map[int]int
	bands        map[int]models.Band
	lows         map[int]int
	highs        map[int]int
}

// NewRecord creates an empty record for a session over question ids 1..n.
func NewRecord(participantID string, createdAt time.Time, n int, consentEnabled bool, narrowRadius, wideRadius int) *Record {
	return &Record{
		participantID:  participantID,
		timestamp:      createdAt.UTC(),
		consentEnabled: consentEnabled,
		narrowRadius:   narrowRadius,
		wideRadius:     wideRadius,
		numQuestions:   n,
		selfReports:    make(map[int]int, n),
		predictions:    make(map[int]int, n),
		bands:          make(map[int]models.Band, n),
		lows:           make(map[int]int, n),
		highs:          make(map[int]int, n),
	}
}

func (r *Record) checkQuestion(id int) error {
	if id < 1 || id > r.numQuestions {
		return fmt.Errorf("question id %d out of range 1..%d", id, r.numQuestions)
	}
	return nil
}

func checkScale(value int) error {
	if value < constants.ScaleMin || value > constants.ScaleMax {
		return fmt.Errorf("value %d out of range %d..%d", value, constants.ScaleMin, constants.ScaleMax)
	}
	return nil
}

// SetConsent stores the consent confirmation and sharing choice.
func (r *Record) SetConsent(confirmed bool, choice models.ConsentChoice) {
	r.consentConfirmed = confirmed
	r.consentChoice = choice
}

// SetWeChatID stores the payment identifier.
func (r *Record) SetWeChatID(id string) {
	r.wechatID = id
}

// RecordSelfReport stores the participant's own interpretation for a question.
// A value left at its random slider default is accepted like any other.
func (r *Record) RecordSelfReport(questionID, value int) error {
	if err := r.checkQuestion(questionID); err != nil {
		return err
	}
	if err := checkScale(value); err != nil {
		return err
	}
	r.selfReports[questionID] = value
	return nil
}

// RecordPrediction stores the participant's group prediction for a question.
// If a band was already chosen for this question the interval is recomputed
// from the new prediction; otherwise it waits for the band choice.
func (r *Record) RecordPrediction(questionID, value int) error {
	if err := r.checkQuestion(questionID); err != nil {
		return err
	}
	if err := checkScale(value); err != nil {
		return err
	}
	r.predictions[questionID] = value
	if band, ok := r.bands[questionID]; ok {
		r.lows[questionID], r.highs[questionID] = Interval(value, band, r.narrowRadius, r.wideRadius)
	}
	return nil
}

// RecordBand stores the band choice and recomputes the interval from the
// latest stored prediction, if one exists.
func (r *Record) RecordBand(questionID int, band models.Band) error {
	if err := r.checkQuestion(questionID); err != nil {
		return err
	}
	if _, err := models.ParseBand(string(band)); err != nil {
		return err
	}
	r.bands[questionID] = band
	if pred, ok := r.predictions[questionID]; ok {
		r.lows[questionID], r.highs[questionID] = Interval(pred, band, r.narrowRadius, r.wideRadius)
	}
	return nil
}

// HasSelfReport reports whether a stage-1 value exists for the question.
func (r *Record) HasSelfReport(questionID int) bool {
	_, ok := r.selfReports[questionID]
	return ok
}

// MissingPredictionFields returns the per-question fields still absent from
// the prediction stage, in canonical question order.
func (r *Record) MissingPredictionFields() []string {
	var missing []string
	for id := 1; id <= r.numQuestions; id++ {
		if _, ok := r.predictions[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_pred", id))
		}
		if _, ok := r.bands[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_band", id))
		}
	}
	return missing
}

// Snapshot is an immutable finalized record, keyed by canonical column name.
type Snapshot struct {
	fields map[string]string
}

// Get returns the value for a canonical column, or "" when absent.
func (s Snapshot) Get(column string) string {
	return s.fields[column]
}

// Row flattens the snapshot into the given column order.
func (s Snapshot) Row(header []string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = s.fields[col]
	}
	return row
}

// Finalize checks that every question carries all five per-question fields and
// returns the flattened, immutable snapshot. The record itself is no longer
// mutated after a successful finalize; callers must treat the session as
// submit-only from here.
func (r *Record) Finalize() (Snapshot, error) {
	var missing []string
	for id := 1; id <= r.numQuestions; id++ {
		if _, ok := r.selfReports[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_stage1", id))
		}
		if _, ok := r.predictions[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_pred", id))
		}
		if _, ok := r.bands[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_band", id))
		}
		if _, ok := r.lows[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_low", id))
		}
		if _, ok := r.highs[id]; !ok {
			missing = append(missing, fmt.Sprintf("q%d_high", id))
		}
	}
	if len(missing) > 0 {
		return Snapshot{}, &IncompleteRecordError{Missing: missing}
	}

	fields := map[string]string{
		constants.ColParticipantID: r.participantID,
		constants.ColTimestamp:     r.timestamp.Format(constants.TimestampFormat),
		constants.ColWeChatID:      r.wechatID,
	}
	if r.consentEnabled {
		fields[constants.ColConsent] = strconv.FormatBool(r.consentConfirmed)
		fields[constants.ColConsentShare] = string(r.consentChoice)
	}
	for id := 1; id <= r.numQuestions; id++ {
		fields[fmt.Sprintf("q%d_stage1", id)] = strconv.Itoa(r.selfReports[id])
		fields[fmt.Sprintf("q%d_pred", id)] = strconv.Itoa(r.predictions[id])
		fields[fmt.Sprintf("q%d_band", id)] = string(r.bands[id])
		fields[fmt.Sprintf("q%d_low", id)] = strconv.Itoa(r.lows[id])
		fields[fmt.Sprintf("q%d_high", id)] = strconv.Itoa(r.highs[id])
	}
	return Snapshot{fields: fields}, nil
}
