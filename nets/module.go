package nets

import (
	"github.com/reusee/dscope"
	"port/configs"
	"port/logs"
)

type Module struct {
	dscope.Module
	Configs configs.Module
	Logs    logs.Module
}
