package cli

import (
	"fmt"

	"probeword/internal/config"
	"probeword/internal/models"
	"probeword/internal/sink"
)

// Context carries the resolved runtime pieces into every command.
type Context struct {
	Store     sink.Sink
	Config    config.Config
	Questions []models.Question
	Debug     bool
}

// Header returns the canonical column header for the active question set.
func (c *Context) Header() []string {
	return sink.Header(len(c.Questions), c.Config.ConsentEnabled)
}

// QuestionsCmd prints the active question set in canonical id order.
type QuestionsCmd struct{}

func (cmd *QuestionsCmd) Run(ctx *Context) error {
	for _, q := range ctx.Questions {
		fmt.Printf("%3d  %s\n", q.ID, q.Prompt)
	}
	return nil
}
