package system

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"probeword/internal/cli"
	"probeword/internal/logger"
	"probeword/internal/session"
	"probeword/internal/tui"
)

// RunCmd launches one survey session in the interactive TUI.
type RunCmd struct{}

func (c *RunCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	sess, err := session.New(ctx.Config, ctx.Questions)
	if err != nil {
		return err
	}
	logger.Info("Starting survey session", "participant", sess.ID, "questions", len(ctx.Questions))

	p := tea.NewProgram(tui.NewModel(ctx.Config, sess, ctx.Store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
	return nil
}
