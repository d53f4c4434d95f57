package store

import (
	"fmt"

	"github.com/Flyrell/logbook/internal/config"
)

// Open creates the store selected by cfg.Backend.
func Open(homeDir string, cfg config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile:
		return NewFile(config.Dir(homeDir)), nil
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.BackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
}
