package sink

import (
	"fmt"

	"probeword/internal/constants"
)

// Header returns the canonical column order for a question set of size n:
// identity fields, optional consent fields, then each per-question field kind
// grouped across all questions. The order is fixed by question id and is
// never affected by a session's randomized presentation order.
func Header(n int, consent bool) []string {
	cols := []string{
		constants.ColParticipantID,
		constants.ColTimestamp,
		constants.ColWeChatID,
	}
	if consent {
		cols = append(cols, constants.ColConsent, constants.ColConsentShare)
	}
	for _, kind := range []string{"stage1", "pred", "band", "low", "high"} {
		for id := 1; id <= n; id++ {
			cols = append(cols, fmt.Sprintf("q%d_%s", id, kind))
		}
	}
	return cols
}

func headerEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
