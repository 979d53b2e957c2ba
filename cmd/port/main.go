package main

import (
	"context"
	"os"

	"github.com/reusee/dscope"
	"port/cmds"
	"port/engines"
	"port/logs"
	"port/modes"
)

func main() {
	cmds.Execute(os.Args[1:])
	ctx := context.Background()

	scope := dscope.New(
		new(Module),
		modes.ForProduction(),
	)

	scope.Call(func(
		logger logs.Logger,
		console *Console,
		engine *engines.ProcessingEngine,
	) {
		defer console.Close()
		err := engine.Start(ctx)
		ce(err)
		logger.Info("done", "session", engine.SessionID())
	})
}
