package donations

import (
	"github.com/reusee/dscope"
	"port/configs"
	"port/logs"
	"port/nets"
)

type Module struct {
	dscope.Module
	Nets nets.Module
}

type DonateURL string

func (Module) DonateURL(
	loader configs.Loader,
) DonateURL {
	return DonateURL(configs.First[string](loader, "donate_url"))
}

func (Module) Sink(
	donateURL DonateURL,
	client nets.HTTPClient,
	logger logs.Logger,
) Sink {
	if donateURL == "" {
		logger.Info("donations kept in memory, no donate_url configured")
		return new(MemorySink)
	}
	logger.Info("donations", "url", donateURL)
	return &HTTPSink{
		URL:    string(donateURL),
		Client: client,
	}
}
