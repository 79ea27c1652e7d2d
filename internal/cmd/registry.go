package cmd

import (
	"context"

	"github.com/meganame/megacheck/internal/config"
	"github.com/meganame/megacheck/internal/core/registry"
)

// registryClient is what the commands need from the registry connection.
type registryClient interface {
	registry.Registry
	registry.StatusReporter
	Close()
}

// openRegistry dials the configured MegaETH endpoint.
var openRegistry = func(ctx context.Context, cfg *config.Config) (registryClient, error) {
	reg, err := registry.Dial(ctx, cfg.RegistryOptions())
	if err != nil {
		return nil, err
	}
	return reg, nil
}
