package sandboxes

import (
	"context"

	"port/protocols"
)

// Runtime executes the inspection script in isolation. It is owned by one
// ProcessingEngine and passed explicitly, never shared.
//
// Initialise must complete exactly once before any cycle; it is not
// idempotent. Start begins the script's top-level routine and blocks until
// the first suspension. Resume sends a value into the suspended routine and
// blocks until the next suspension; it fails when no cycle is pending. A nil
// Command means the script ran to completion.
type Runtime interface {
	Initialise(ctx context.Context) error
	Start(ctx context.Context, sessionID int64) (protocols.Command, error)
	Resume(ctx context.Context, payload protocols.Payload) (protocols.Command, error)
}
