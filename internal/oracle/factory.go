package oracle

import (
	"fmt"

	"shipdocs/internal/config"
	"shipdocs/internal/port"
)

// ProviderFactory is a function that creates a FieldOracle from an oracle config.
type ProviderFactory func(cfg *config.OracleConfig) (port.FieldOracle, error)

// registry of oracle provider factories, populated explicitly via
// RegisterProvider from each provider package's wiring.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an oracle provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewOracle creates a FieldOracle from the configured provider using the
// registered factory.
func NewOracle(cfg *config.OracleConfig) (port.FieldOracle, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
