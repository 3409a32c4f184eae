package session

import (
	"fmt"
	"strings"
)

// ValidationError refuses a stage transition. It is always recoverable: the
// presenter re-renders the current stage with the message and nothing in the
// response record changes.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// IncompleteRecordError reports a Finalize call on a record that is missing
// per-question fields. Stage validation is supposed to make this impossible,
// so surfacing one to a participant is a bug, not user error.
type IncompleteRecordError struct {
	Missing []string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("response record incomplete: missing %s", strings.Join(e.Missing, ", "))
}
