package engines

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"port/donations"
	"port/logs"
	"port/protocols"
)

// CommandRouter dispatches sandbox commands to their handlers.
type CommandRouter struct {
	visualisation Visualisation
	sink          donations.Sink
	logger        logs.Logger
}

func NewCommandRouter(
	visualisation Visualisation,
	sink donations.Sink,
	logger logs.Logger,
) *CommandRouter {
	return &CommandRouter{
		visualisation: visualisation,
		sink:          sink,
		logger:        logger,
	}
}

// Route matches the command union. Render commands go to the visualisation
// with a single-use resolve callback. Donate commands are forwarded to the
// sink and answered immediately with a void payload, so the script resumes
// without waiting on the participant. Unknown commands are logged and
// dropped; the cycle stalls until the session is cancelled.
func (r *CommandRouter) Route(
	ctx context.Context,
	command protocols.Command,
	respond func(protocols.Response) error,
) {
	switch command := command.(type) {

	case protocols.CommandUIRender:
		prompt := protocols.PromptID(uuid.NewString())
		var once sync.Once
		resolve := func(payload protocols.Payload) {
			delivered := false
			once.Do(func() {
				delivered = true
			})
			if !delivered {
				r.logger.WarnContext(ctx, "duplicate response ignored",
					"prompt", prompt,
				)
				return
			}
			if err := respond(protocols.Response{
				Payload: payload,
				Prompt:  prompt,
			}); err != nil {
				r.logger.ErrorContext(ctx, "response rejected",
					"prompt", prompt,
					"error", err,
				)
			}
		}
		r.visualisation.Render(command.Page, resolve)

	case protocols.CommandSystemDonate:
		if err := r.sink.Donate(ctx, command.Key, command.JSONString); err != nil {
			r.logger.ErrorContext(ctx, "donate failed",
				"key", command.Key,
				"error", err,
			)
		}
		if err := respond(protocols.Response{
			Payload: protocols.PayloadVoid{},
		}); err != nil {
			r.logger.ErrorContext(ctx, "response rejected",
				"error", err,
			)
		}

	case protocols.CommandUnknown:
		r.logger.ErrorContext(ctx, "unknown command dropped",
			"kind", command.Kind,
		)

	default:
		r.logger.ErrorContext(ctx, "unknown command dropped",
			"kind", command.CommandKind(),
		)
	}
}
