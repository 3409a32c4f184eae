package sink

import "fmt"

// Sink writes finalized response rows to durable storage. One implementation
// is selected at startup from explicit configuration; probing for credentials
// at runtime is not how backends are chosen.
//
// Append is synchronous and reconciles the store's header/columns against the
// canonical header before writing. Either the full row lands or nothing does.
// Concurrent sessions writing to the same store get best-effort semantics:
// the reconciliation step is not atomic across writers.
type Sink interface {
	// Init creates the store if needed and ensures the canonical header is
	// in place. On an empty store this writes the header and nothing else.
	Init(header []string) error

	// Load verifies the store exists and is reachable.
	Load() error

	// Append writes one row under the given header, reconciling first.
	Append(header, row []string) error

	Close() error

	// Describe returns a non-sensitive identifier for diagnostics.
	Describe() string
}

// PersistenceError wraps a failed sink operation. It is surfaced to the
// participant as retryable: the in-memory record survives and the same submit
// can be re-attempted without redoing earlier stages.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
