package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"probeword/internal/logger"
	"probeword/internal/models"
	"probeword/internal/sink"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	if m.sess.Stage() == models.StageDone || m.form == nil {
		// Terminal stage: re-render is idempotent, nothing left to do.
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		return m.advanceStage(cmds)
	case huh.StateAborted:
		// Esc does not abandon the survey; rebuild the stage form with the
		// participant's entries intact.
		m.buildStageForm()
		return m, m.form.Init()
	}

	return m, tea.Batch(cmds...)
}

// advanceStage feeds the completed form into the session's transition for the
// current stage. A refused transition re-renders the same stage with the
// validation message and the record untouched.
func (m Model) advanceStage(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	var err error
	switch m.sess.Stage() {
	case models.StageConsent:
		err = m.sess.ConfirmConsent(m.consentForm.Confirmed, m.consentForm.Choice)
	case models.StageInstructions:
		err = m.sess.BeginSelfReport(m.instructionsForm.WeChatID)
	case models.StageSelfReport:
		err = m.applySelfReports()
	case models.StagePrediction:
		err = m.applyPredictionsAndSubmit()
	}

	if err != nil {
		m.formError = err.Error()
		var perr *sink.PersistenceError
		if errors.As(err, &perr) {
			m.formError = "Saving your responses failed: " + perr.Err.Error() + ". Press enter to retry."
			logger.Error("Submit failed", "error", perr)
		}
		m.buildStageForm()
		return m, m.form.Init()
	}

	m.formError = ""
	m.buildStageForm()
	if m.sess.Stage() == models.StageDone {
		return m, nil
	}

	cmds = append(cmds, m.form.Init())
	if m.sess.ScrollToTop() {
		// One-shot on first entry to the prediction stage.
		cmds = append(cmds, tea.ClearScreen)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applySelfReports() error {
	for i, q := range m.sess.Questions() {
		value, err := strconv.Atoi(strings.TrimSpace(m.answersForm.Values[i]))
		if err != nil {
			return err
		}
		if err := m.sess.RecordSelfReport(q.ID, value); err != nil {
			return err
		}
	}
	return m.sess.BeginPrediction()
}

func (m *Model) applyPredictionsAndSubmit() error {
	for i, q := range m.sess.Questions() {
		value, err := strconv.Atoi(strings.TrimSpace(m.predictionForm.Predictions[i]))
		if err != nil {
			return err
		}
		if err := m.sess.RecordPrediction(q.ID, value); err != nil {
			return err
		}
		if err := m.sess.RecordBand(q.ID, m.predictionForm.Bands[i]); err != nil {
			return err
		}
	}

	header := sink.Header(len(m.sess.Questions()), m.cfg.ConsentEnabled)
	return m.sess.Submit(m.store, header)
}
