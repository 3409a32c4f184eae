package session

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"probeword/internal/config"
	"probeword/internal/models"
	"probeword/internal/sink"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RandomizeOrder = false
	cfg.RequireWeChatID = true
	return cfg
}

func testQuestions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{ID: i + 1, Prompt: fmt.Sprintf("phrase %d", i+1)}
	}
	return qs
}

func newTestSession(t *testing.T, cfg config.Config, n int) *Session {
	t.Helper()
	sess, err := NewWithRand(cfg, testQuestions(n), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("NewWithRand: %v", err)
	}
	return sess
}

// fakeStore records appends and optionally fails the first n of them.
type fakeStore struct {
	failures int
	appends  int
	header   []string
	row      []string
}

func (f *fakeStore) Append(header, row []string) error {
	if f.appends < f.failures {
		f.appends++
		return &sink.PersistenceError{Op: "append", Err: errors.New("store offline")}
	}
	f.appends++
	f.header = header
	f.row = row
	return nil
}

func TestNewSessionStartsAtConsent(t *testing.T) {
	sess := newTestSession(t, testConfig(), 3)
	if sess.Stage() != models.StageConsent {
		t.Errorf("stage = %s, want consent", sess.Stage())
	}
}

func TestNewSessionSkipsConsentWhenDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.ConsentEnabled = false
	sess := newTestSession(t, cfg, 3)
	if sess.Stage() != models.StageInstructions {
		t.Errorf("stage = %s, want instructions", sess.Stage())
	}
}

func TestConsentRefusal(t *testing.T) {
	sess := newTestSession(t, testConfig(), 3)

	err := sess.ConfirmConsent(false, models.ConsentNoShare)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if sess.Stage() != models.StageConsent {
		t.Errorf("refused transition moved stage to %s", sess.Stage())
	}

	if err := sess.ConfirmConsent(true, models.ConsentNoShare); err != nil {
		t.Fatalf("ConfirmConsent: %v", err)
	}
	if sess.Stage() != models.StageInstructions {
		t.Errorf("stage = %s, want instructions", sess.Stage())
	}
}

func TestBeginSelfReportRequiresWeChatID(t *testing.T) {
	sess := newTestSession(t, testConfig(), 3)
	if err := sess.ConfirmConsent(true, models.ConsentDeidentified); err != nil {
		t.Fatalf("ConfirmConsent: %v", err)
	}

	if err := sess.BeginSelfReport("   "); err == nil {
		t.Error("expected error for blank WeChat ID")
	}
	if sess.Stage() != models.StageInstructions {
		t.Errorf("refused transition moved stage to %s", sess.Stage())
	}

	if err := sess.BeginSelfReport(" wx-1 "); err != nil {
		t.Fatalf("BeginSelfReport: %v", err)
	}
	if sess.Stage() != models.StageSelfReport {
		t.Errorf("stage = %s, want self-report", sess.Stage())
	}
}

func TestOperationsRejectedOffStage(t *testing.T) {
	sess := newTestSession(t, testConfig(), 3)

	if err := sess.RecordSelfReport(1, 50); err == nil {
		t.Error("RecordSelfReport accepted on consent stage")
	}
	if err := sess.RecordPrediction(1, 50); err == nil {
		t.Error("RecordPrediction accepted on consent stage")
	}
	if err := sess.BeginPrediction(); err == nil {
		t.Error("BeginPrediction accepted on consent stage")
	}
	if err := sess.Submit(&fakeStore{}, sink.Header(3, true)); err == nil {
		t.Error("Submit accepted on consent stage")
	}
}

func TestBeginPredictionRequiresAllAnswers(t *testing.T) {
	sess := newTestSession(t, testConfig(), 3)
	mustAdvanceToSelfReport(t, sess)

	if err := sess.RecordSelfReport(1, 10); err != nil {
		t.Fatalf("RecordSelfReport: %v", err)
	}
	if err := sess.RecordSelfReport(3, 90); err != nil {
		t.Fatalf("RecordSelfReport: %v", err)
	}

	err := sess.BeginPrediction()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if verr.Field != "q2_stage1" {
		t.Errorf("field = %q, want q2_stage1", verr.Field)
	}
	if sess.Stage() != models.StageSelfReport {
		t.Errorf("refused transition moved stage to %s", sess.Stage())
	}

	if err := sess.RecordSelfReport(2, 50); err != nil {
		t.Fatalf("RecordSelfReport: %v", err)
	}
	if err := sess.BeginPrediction(); err != nil {
		t.Fatalf("BeginPrediction: %v", err)
	}
	if sess.Stage() != models.StagePrediction {
		t.Errorf("stage = %s, want prediction", sess.Stage())
	}
}

func TestScrollToTopFiresOnce(t *testing.T) {
	sess := newTestSession(t, testConfig(), 2)

	// Not yet on the prediction stage: no signal.
	if sess.ScrollToTop() {
		t.Error("scroll fired before prediction stage")
	}

	mustAdvanceToSelfReport(t, sess)
	for id := 1; id <= 2; id++ {
		if err := sess.RecordSelfReport(id, 50); err != nil {
			t.Fatalf("RecordSelfReport: %v", err)
		}
	}
	if err := sess.BeginPrediction(); err != nil {
		t.Fatalf("BeginPrediction: %v", err)
	}

	if !sess.ScrollToTop() {
		t.Error("scroll did not fire on first prediction-stage check")
	}
	for i := 0; i < 5; i++ {
		if sess.ScrollToTop() {
			t.Fatal("scroll fired more than once")
		}
	}
}

func TestSubmitRetryAfterStoreFailure(t *testing.T) {
	sess := newTestSession(t, testConfig(), 1)
	mustAdvanceToSelfReport(t, sess)
	if err := sess.RecordSelfReport(1, 40); err != nil {
		t.Fatalf("RecordSelfReport: %v", err)
	}
	if err := sess.BeginPrediction(); err != nil {
		t.Fatalf("BeginPrediction: %v", err)
	}
	if err := sess.RecordPrediction(1, 45); err != nil {
		t.Fatalf("RecordPrediction: %v", err)
	}
	if err := sess.RecordBand(1, models.BandNarrow); err != nil {
		t.Fatalf("RecordBand: %v", err)
	}

	store := &fakeStore{failures: 1}
	header := sink.Header(1, true)

	err := sess.Submit(store, header)
	var perr *sink.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *PersistenceError", err)
	}
	if sess.Stage() != models.StagePrediction {
		t.Errorf("failed submit moved stage to %s", sess.Stage())
	}

	// Same submit again succeeds; only then is the session done.
	if err := sess.Submit(store, header); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if sess.Stage() != models.StageDone {
		t.Errorf("stage = %s, want done", sess.Stage())
	}
	if store.appends != 2 {
		t.Errorf("appends = %d, want 2", store.appends)
	}
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	sess := newTestSession(t, testConfig(), 2)
	mustAdvanceToSelfReport(t, sess)
	for id := 1; id <= 2; id++ {
		if err := sess.RecordSelfReport(id, 50); err != nil {
			t.Fatalf("RecordSelfReport: %v", err)
		}
	}
	if err := sess.BeginPrediction(); err != nil {
		t.Fatalf("BeginPrediction: %v", err)
	}
	if err := sess.RecordPrediction(1, 55); err != nil {
		t.Fatalf("RecordPrediction: %v", err)
	}
	if err := sess.RecordBand(1, models.BandWide); err != nil {
		t.Fatalf("RecordBand: %v", err)
	}

	store := &fakeStore{}
	err := sess.Submit(store, sink.Header(2, true))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if store.appends != 0 {
		t.Errorf("store touched on invalid submit (%d appends)", store.appends)
	}
	if sess.Stage() != models.StagePrediction {
		t.Errorf("stage = %s, want prediction", sess.Stage())
	}
}

func TestFullSessionRow(t *testing.T) {
	cfg := testConfig()
	sess := newTestSession(t, cfg, 3)

	if err := sess.ConfirmConsent(true, models.ConsentIdentifiable); err != nil {
		t.Fatalf("ConfirmConsent: %v", err)
	}
	if err := sess.BeginSelfReport("wx-full"); err != nil {
		t.Fatalf("BeginSelfReport: %v", err)
	}

	selfReports := map[int]int{1: 10, 2: 50, 3: 90}
	for id, v := range selfReports {
		if err := sess.RecordSelfReport(id, v); err != nil {
			t.Fatalf("RecordSelfReport(%d): %v", id, err)
		}
	}
	if err := sess.BeginPrediction(); err != nil {
		t.Fatalf("BeginPrediction: %v", err)
	}

	preds := map[int]int{1: 12, 2: 48, 3: 91}
	bands := map[int]models.Band{1: models.BandNarrow, 2: models.BandWide, 3: models.BandNarrow}
	for id, v := range preds {
		if err := sess.RecordPrediction(id, v); err != nil {
			t.Fatalf("RecordPrediction(%d): %v", id, err)
		}
		if err := sess.RecordBand(id, bands[id]); err != nil {
			t.Fatalf("RecordBand(%d): %v", id, err)
		}
	}

	store := &fakeStore{}
	header := sink.Header(3, true)
	if err := sess.Submit(store, header); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	byCol := make(map[string]string, len(header))
	for i, col := range header {
		byCol[col] = store.row[i]
	}

	want := map[string]string{
		"participant_id":    sess.ID.String(),
		"wechat_id":         "wx-full",
		"consent_confirmed": "true",
		"consent_share":     "identifiable",
		"q1_stage1":         "10",
		"q2_stage1":         "50",
		"q3_stage1":         "90",
		"q1_pred":           "12",
		"q2_pred":           "48",
		"q3_pred":           "91",
		"q1_band":           "narrow",
		"q2_band":           "wide",
		"q3_band":           "narrow",
		"q1_low":            "9",
		"q1_high":           "15",
		"q2_low":            "42",
		"q2_high":           "54",
		"q3_low":            "88",
		"q3_high":           "94",
	}
	for col, wantVal := range want {
		if byCol[col] != wantVal {
			t.Errorf("%s = %q, want %q", col, byCol[col], wantVal)
		}
	}
	if byCol["timestamp"] == "" {
		t.Error("timestamp column is empty")
	}
}

func TestOrderIsPermutation(t *testing.T) {
	qs := testQuestions(15)
	rng := rand.New(rand.NewSource(42))

	shuffled := Order(qs, true, rng)
	if len(shuffled) != len(qs) {
		t.Fatalf("len = %d, want %d", len(shuffled), len(qs))
	}

	seen := make(map[int]int)
	for _, q := range shuffled {
		seen[q.ID]++
	}
	for _, q := range qs {
		if seen[q.ID] != 1 {
			t.Errorf("question %d appears %d times", q.ID, seen[q.ID])
		}
	}

	// Input slice must stay untouched.
	for i, q := range qs {
		if q.ID != i+1 {
			t.Errorf("input slice mutated at %d: id=%d", i, q.ID)
		}
	}

	fixed := Order(qs, false, rng)
	for i, q := range fixed {
		if q.ID != i+1 {
			t.Errorf("randomize=false reordered: position %d has id %d", i, q.ID)
		}
	}
}

func TestSliderDefaultsInRange(t *testing.T) {
	sess := newTestSession(t, testConfig(), 15)
	for id := 1; id <= 15; id++ {
		if d := sess.SelfReportDefault(id); d < 0 || d > 100 {
			t.Errorf("self-report default for q%d = %d", id, d)
		}
		if d := sess.PredictionDefault(id); d < 0 || d > 100 {
			t.Errorf("prediction default for q%d = %d", id, d)
		}
	}
}

func mustAdvanceToSelfReport(t *testing.T, sess *Session) {
	t.Helper()
	if err := sess.ConfirmConsent(true, models.ConsentDeidentified); err != nil {
		t.Fatalf("ConfirmConsent: %v", err)
	}
	if err := sess.BeginSelfReport("wx-1"); err != nil {
		t.Fatalf("BeginSelfReport: %v", err)
	}
}
