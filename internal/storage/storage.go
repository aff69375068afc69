package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/domain"
)

// Package storage persists interview sessions between turns.

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// Store keeps interview sessions keyed by interview id.
type Store interface {
	Close() error
	Load(id string) (*domain.Session, error)
	Save(s *domain.Session) error
	Delete(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	RedisPassword string
	RedisDB       int
}

const (
	defaultSessionTTL      = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend. path is a file for bbolt and host:port for redis.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case "redis":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

func validateSession(s *domain.Session) error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	return nil
}

// noopStore forgets everything; each CLI call is then a single-turn interview.
type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) Load(string) (*domain.Session, error) { return nil, ErrSessionNotFound }
func (noopStore) Save(*domain.Session) error           { return nil }
func (noopStore) Delete(string) error                  { return nil }
