package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"probeword/internal/config"
	"probeword/internal/models"
	"probeword/internal/session"
	"probeword/internal/sink"
	"probeword/internal/tui/forms"
)

// Model drives one participant through the survey. The stage machine lives in
// the session; the model only renders the active stage's form and feeds
// completed values back through the session's advance operations.
type Model struct {
	cfg   config.Config
	sess  *session.Session
	store sink.Sink

	form             *huh.Form
	consentForm      *forms.ConsentFormModel
	instructionsForm *forms.InstructionsFormModel
	answersForm      *forms.AnswersFormModel
	predictionForm   *forms.PredictionFormModel

	keys      KeyMap
	help      help.Model
	formError string
	quitting  bool
	width     int
	height    int
}

// NewModel builds the TUI for a fresh session.
func NewModel(cfg config.Config, sess *session.Session, store sink.Sink) Model {
	m := Model{
		cfg:   cfg,
		sess:  sess,
		store: store,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
	m.buildStageForm()
	return m
}

// buildStageForm constructs the form for the session's current stage. The
// existing form model for that stage is reused so a refused transition keeps
// the participant's entries.
func (m *Model) buildStageForm() {
	switch m.sess.Stage() {
	case models.StageConsent:
		if m.consentForm == nil {
			m.consentForm = &forms.ConsentFormModel{}
		}
		m.form = forms.NewConsentForm(m.consentForm)
	case models.StageInstructions:
		if m.instructionsForm == nil {
			m.instructionsForm = &forms.InstructionsFormModel{}
		}
		m.form = forms.NewInstructionsForm(m.instructionsForm, m.cfg)
	case models.StageSelfReport:
		if m.answersForm == nil {
			m.answersForm = forms.NewAnswersFormModel(m.sess.Questions(), m.sess.SelfReportDefault)
		}
		m.form = forms.NewSelfReportForm(m.answersForm, m.sess.Questions())
	case models.StagePrediction:
		if m.predictionForm == nil {
			m.predictionForm = forms.NewPredictionFormModel(m.sess.Questions(), m.sess.PredictionDefault)
		}
		m.form = forms.NewPredictionForm(m.predictionForm, m.sess.Questions(), m.cfg)
	case models.StageDone:
		m.form = nil
	}
}

func (m Model) Init() tea.Cmd {
	if m.form != nil {
		return m.form.Init()
	}
	return nil
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Quit, m.keys.Help}}
}
