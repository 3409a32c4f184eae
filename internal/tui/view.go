package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"probeword/internal/constants"
	"probeword/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.sess.Stage() == models.StageDone {
		return m.viewDone()
	}

	var banner string
	if m.formError != "" {
		banner = dangerStyle.Render("⚠ " + m.formError)
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		stageTitleStyle.Render(m.stageTitle()),
		banner,
		m.form.View(),
		m.help.View(m),
	))
}

func (m Model) stageTitle() string {
	switch m.sess.Stage() {
	case models.StageConsent:
		return "Consent"
	case models.StageInstructions:
		return "Instructions"
	case models.StageSelfReport:
		return "Stage 1 of 2"
	case models.StagePrediction:
		return "Stage 2 of 2"
	default:
		return ""
	}
}

func (m Model) viewDone() string {
	return lipgloss.Place(m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			successStyle.Render("Thank you!"),
			"",
			fmt.Sprintf("You will receive %.0f %s plus your prediction bonus.", m.cfg.BaseFee, constants.Currency),
			"",
			subtleStyle.Render(fmt.Sprintf("Participant id: %s", m.sess.ID)),
			subtleStyle.Render("You can close this window now (ctrl+c)."),
		),
	)
}
