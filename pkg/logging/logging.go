package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the root zap logger for the given environment.
// "local" and "dev" get a human-readable development logger at debug level;
// everything else gets the production JSON logger.
func New(env string) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	switch env {
	case "local", "dev", "development":
		logger, err = zap.NewDevelopment()
	default:
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
