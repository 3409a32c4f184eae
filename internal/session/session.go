package session

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"probeword/internal/config"
	"probeword/internal/models"
)

// Appender is the persistence boundary seen by the stage machine: one
// synchronous append of the finalized row under the given column header. The
// implementation owns credentials, connections, and header reconciliation.
type Appender interface {
	Append(header, row []string) error
}

// Session holds everything one participant run needs: identity, the fixed
// presentation order, per-stage random slider defaults, the accumulating
// response record, and the stage machine's current state. Nothing here is
// shared across sessions and nothing survives the process.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	cfg   config.Config
	order []models.Question
	stage models.Stage

	selfDefaults map[int]int
	predDefaults map[int]int

	// scrollFired latches the one-shot scroll-to-top signal for the
	// prediction stage. Flipped exactly once, inspected, never reset.
	scrollFired bool

	record *Record
}

// New creates a session over the given question set. The presentation order
// and the random slider defaults are fixed here for the session's lifetime.
func New(cfg config.Config, questions []models.Question) (*Session, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return NewWithRand(cfg, questions, rng)
}

// NewWithRand is New with a caller-supplied random source.
func NewWithRand(cfg config.Config, questions []models.Question, rng *rand.Rand) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := models.ValidateQuestions(questions); err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()

	selfDefaults := make(map[int]int, len(questions))
	predDefaults := make(map[int]int, len(questions))
	for _, q := range questions {
		selfDefaults[q.ID] = rng.Intn(101)
		predDefaults[q.ID] = rng.Intn(101)
	}

	stage := models.StageConsent
	if !cfg.ConsentEnabled {
		stage = models.StageInstructions
	}

	return &Session{
		ID:           id,
		CreatedAt:    now,
		cfg:          cfg,
		order:        Order(questions, cfg.RandomizeOrder, rng),
		stage:        stage,
		selfDefaults: selfDefaults,
		predDefaults: predDefaults,
		record:       NewRecord(id.String(), now, len(questions), cfg.ConsentEnabled, cfg.NarrowRadius, cfg.WideRadius),
	}, nil
}

// Stage returns the active screen.
func (s *Session) Stage() models.Stage {
	return s.stage
}

// Questions returns the session's presentation order.
func (s *Session) Questions() []models.Question {
	return s.order
}

// SelfReportDefault returns the random initial slider position for a question
// on the self-report stage.
func (s *Session) SelfReportDefault(questionID int) int {
	return s.selfDefaults[questionID]
}

// PredictionDefault returns the random initial slider position for a question
// on the prediction stage.
func (s *Session) PredictionDefault(questionID int) int {
	return s.predDefaults[questionID]
}

func (s *Session) requireStage(want models.Stage) error {
	if s.stage != want {
		return fmt.Errorf("operation requires stage %s, session is in %s", want, s.stage)
	}
	return nil
}

// ConfirmConsent validates the consent screen and advances to instructions.
// A refused transition mutates nothing.
func (s *Session) ConfirmConsent(confirmed bool, choice models.ConsentChoice) error {
	if err := s.requireStage(models.StageConsent); err != nil {
		return err
	}
	if !confirmed {
		return &ValidationError{Field: "consent", Msg: "you must confirm consent to participate"}
	}
	if _, err := models.ParseConsentChoice(string(choice)); err != nil {
		return &ValidationError{Field: "consent_share", Msg: "please choose a data sharing option"}
	}

	s.record.SetConsent(confirmed, choice)
	s.stage = models.StageInstructions
	return nil
}

// BeginSelfReport validates the instructions screen, copies the payment
// identifier into the record, and advances to the self-report stage.
func (s *Session) BeginSelfReport(wechatID string) error {
	if err := s.requireStage(models.StageInstructions); err != nil {
		return err
	}
	wechatID = strings.TrimSpace(wechatID)
	if s.cfg.RequireWeChatID && wechatID == "" {
		return &ValidationError{Field: "wechat_id", Msg: "a WeChat ID is required for payment"}
	}

	s.record.SetWeChatID(wechatID)
	s.stage = models.StageSelfReport
	return nil
}

// RecordSelfReport stores a stage-1 answer. Only valid on the self-report stage.
func (s *Session) RecordSelfReport(questionID, value int) error {
	if err := s.requireStage(models.StageSelfReport); err != nil {
		return err
	}
	return s.record.RecordSelfReport(questionID, value)
}

// BeginPrediction advances to the prediction stage. Every question in the
// session's order must carry a stage-1 value; otherwise the transition is
// refused and the stage is unchanged.
func (s *Session) BeginPrediction() error {
	if err := s.requireStage(models.StageSelfReport); err != nil {
		return err
	}
	for _, q := range s.order {
		if !s.record.HasSelfReport(q.ID) {
			return &ValidationError{
				Field: fmt.Sprintf("q%d_stage1", q.ID),
				Msg:   "please answer every question before continuing",
			}
		}
	}

	s.stage = models.StagePrediction
	return nil
}

// RecordPrediction stores a prediction. Only valid on the prediction stage.
func (s *Session) RecordPrediction(questionID, value int) error {
	if err := s.requireStage(models.StagePrediction); err != nil {
		return err
	}
	return s.record.RecordPrediction(questionID, value)
}

// RecordBand stores a band choice. Only valid on the prediction stage.
func (s *Session) RecordBand(questionID int, band models.Band) error {
	if err := s.requireStage(models.StagePrediction); err != nil {
		return err
	}
	return s.record.RecordBand(questionID, band)
}

// ScrollToTop consumes the one-shot scroll signal for the prediction stage.
// It reports true exactly once per session, on the first call after the
// prediction stage is entered, no matter how many times the screen re-renders.
func (s *Session) ScrollToTop() bool {
	if s.stage != models.StagePrediction || s.scrollFired {
		return false
	}
	s.scrollFired = true
	return true
}

// Submit finalizes the record and hands it to the store. Only a successful
// append completes the transition to the terminal stage; on failure the
// session stays on the prediction stage with the record intact, so the same
// submit can be retried. The store is not asked to deduplicate retries.
func (s *Session) Submit(store Appender, header []string) error {
	if err := s.requireStage(models.StagePrediction); err != nil {
		return err
	}
	if missing := s.record.MissingPredictionFields(); len(missing) > 0 {
		return &ValidationError{
			Field: missing[0],
			Msg:   "please complete every prediction and band choice before submitting",
		}
	}

	snapshot, err := s.record.Finalize()
	if err != nil {
		return err
	}
	if err := store.Append(header, snapshot.Row(header)); err != nil {
		return err
	}

	s.stage = models.StageDone
	return nil
}
