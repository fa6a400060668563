package app

import (
	"github.com/rs/zerolog"

	"bridge-metrics/internal/config"
	"bridge-metrics/internal/logging"
)

// Bootstrap loads .env, the config file at path and the logger it selects.
func Bootstrap(path string) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log.With().Str("app", cfg.App.Name).Logger(), nil
}
