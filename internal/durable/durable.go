// Package durable provides the per-participant key-value stores that keep
// survey progress across restarts.
package durable

import (
	"errors"
	"fmt"
	"regexp"

	"arguesurvey/config"
	"arguesurvey/internal/survey"
)

// Backend hands out one namespaced store per participant client.
type Backend interface {
	For(clientID string) (survey.DurableStore, error)
	Close() error
}

// ErrInvalidClientID rejects ids that cannot be used as a storage namespace.
var ErrInvalidClientID = errors.New("invalid client id")

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func checkClientID(clientID string) error {
	if !clientIDPattern.MatchString(clientID) {
		return fmt.Errorf("%w %q", ErrInvalidClientID, clientID)
	}
	return nil
}

// Open builds the backend selected by durable.driver.
func Open(cfg *config.Config) (Backend, error) {
	switch cfg.Durable.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFileBackend(cfg.Durable.Dir)
	case "redis":
		return NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return nil, fmt.Errorf("unknown durable driver %q", cfg.Durable.Driver)
}
