package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"port/logs"
	"port/protocols"
	"port/sandboxes"
)

// ErrProtocolViolation marks a break of the strict command/response
// alternation. Violations are fatal for the offending call, never retried.
var ErrProtocolViolation = errors.New("protocol violation")

type State int

const (
	StateIdle State = iota
	StateInitialising
	StateReady
	StateCycleInFlight
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialising:
		return "initialising"
	case StateReady:
		return "ready"
	case StateCycleInFlight:
		return "cycle-in-flight"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ProcessingEngine drives one session over one sandbox runtime. Commands
// flow out through the router, exactly one response flows back per command,
// in strict alternation until the script completes.
type ProcessingEngine struct {
	runtime sandboxes.Runtime
	router  *CommandRouter
	logger  logs.Logger

	mu        sync.Mutex
	state     State
	sessionID int64
	responses chan protocols.Response
}

func NewProcessingEngine(
	runtime sandboxes.Runtime,
	router *CommandRouter,
	logger logs.Logger,
) *ProcessingEngine {
	return &ProcessingEngine{
		runtime:   runtime,
		router:    router,
		logger:    logger,
		state:     StateIdle,
		responses: make(chan protocols.Response, 1),
	}
}

func (e *ProcessingEngine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SessionID is zero until Start derives it.
func (e *ProcessingEngine) SessionID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionID
}

func (e *ProcessingEngine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// OnResponse accepts the response to the command currently awaiting one.
// Any response arriving in another state breaks the alternation and is
// rejected.
func (e *ProcessingEngine) OnResponse(response protocols.Response) error {
	e.mu.Lock()
	if e.state != StateReady {
		state := e.state
		e.mu.Unlock()
		e.logger.Error("response rejected",
			"state", state,
			"prompt", response.Prompt,
		)
		return fmt.Errorf("%w: response in state %s", ErrProtocolViolation, state)
	}
	e.state = StateCycleInFlight
	e.mu.Unlock()
	e.responses <- response
	return nil
}

// Start runs the session to completion. It blocks until the script finishes,
// the sandbox fails, or ctx is cancelled. A session abandoned at a prompt is
// ended by cancelling ctx; there is no timeout of its own.
func (e *ProcessingEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateIdle {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: start in state %s", ErrProtocolViolation, state)
	}
	e.state = StateInitialising
	e.mu.Unlock()

	if err := e.runtime.Initialise(ctx); err != nil {
		e.setState(StateTerminated)
		return fmt.Errorf("initialise sandbox: %w", err)
	}

	sessionID := time.Now().UnixMilli()
	e.mu.Lock()
	e.sessionID = sessionID
	e.state = StateCycleInFlight
	e.mu.Unlock()

	ctx = logs.WithSession(ctx, logs.Session(sessionID))
	e.logger.InfoContext(ctx, "session started")

	command, err := e.runtime.Start(ctx, sessionID)
	for {
		if err != nil {
			e.setState(StateTerminated)
			return logs.WrapSession(ctx, err)
		}
		if command == nil {
			e.setState(StateTerminated)
			e.logger.InfoContext(ctx, "session completed")
			return nil
		}

		e.setState(StateReady)
		e.router.Route(ctx, command, e.OnResponse)

		select {
		case response := <-e.responses:
			command, err = e.runtime.Resume(ctx, response.Payload)
		case <-ctx.Done():
			e.setState(StateTerminated)
			return ctx.Err()
		}
	}
}
