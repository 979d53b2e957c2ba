package main

import (
	"os"
	"path/filepath"

	"github.com/reusee/dscope"
	"port/cmds"
	"port/configs"
	"port/engines"
	"port/logs"
	"port/sandboxes"
	"port/vars"
)

var (
	scriptPath = cmds.Var[string]("-script")
	localeFlag = cmds.Var[string]("-locale")
)

type Module struct {
	dscope.Module
	Engines engines.Module
}

type ScriptPath string

func (Module) ScriptPath(
	loader configs.Loader,
) ScriptPath {
	return ScriptPath(vars.FirstNonZero(
		*scriptPath,
		configs.First[string](loader, "script_path"),
		"example.star",
	))
}

type Locale string

func (Module) Locale(
	loader configs.Loader,
) Locale {
	return Locale(vars.FirstNonZero(
		*localeFlag,
		configs.First[string](loader, "locale"),
		"en",
	))
}

func (Module) Runtime(
	path ScriptPath,
	locale Locale,
	logger logs.Logger,
) sandboxes.Runtime {
	source, err := os.ReadFile(string(path))
	ce(err)
	logger.Info("script", "path", path, "locale", locale)
	return sandboxes.NewStarlarkRuntime(
		filepath.Base(string(path)),
		source,
		string(locale),
		logger,
	)
}

func (Module) Console(
	locale Locale,
	logger logs.Logger,
) *Console {
	console, err := NewConsole(string(locale), logger)
	ce(err)
	return console
}

func (Module) Visualisation(
	console *Console,
) engines.Visualisation {
	return console
}
