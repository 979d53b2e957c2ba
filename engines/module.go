package engines

import (
	"github.com/reusee/dscope"
	"port/donations"
	"port/logs"
	"port/sandboxes"
)

type Module struct {
	dscope.Module
	Donations donations.Module
}

func (Module) CommandRouter(
	visualisation Visualisation,
	sink donations.Sink,
	logger logs.Logger,
) *CommandRouter {
	return NewCommandRouter(visualisation, sink, logger)
}

func (Module) ProcessingEngine(
	runtime sandboxes.Runtime,
	router *CommandRouter,
	logger logs.Logger,
) *ProcessingEngine {
	return NewProcessingEngine(runtime, router, logger)
}
