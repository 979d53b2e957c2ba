package configs

import (
	"os"
	"path/filepath"

	"github.com/reusee/dscope"
	"port/cmds"
)

var configPaths = cmds.Collect[string]("-config")

// Schema closes over the fields a port config file may set.
const Schema = `
script_path?: string
donate_url?: string
proxy_addr?: string
locale?: string
`

type Module struct {
	dscope.Module
}

func (Module) Loader() Loader {
	paths := *configPaths
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "port", "config.cue"),
		)
	}
	paths = append(paths, "port.cue")
	return NewLoader(paths, Schema)
}
