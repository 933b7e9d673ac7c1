package export

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stars-project/carla-export/internal/config"
	"github.com/stars-project/carla-export/internal/sim"
)

// Session scopes one exclusive simulator instance to one pipeline job.
// Close restores the world, drops the connection and, when the session
// launched its own instance, stops it.
type Session struct {
	Client   sim.Client
	launcher *sim.Launcher
	log      *slog.Logger
}

// SessionFunc opens a session. The batch driver calls it once per job
// so no world state leaks between runs.
type SessionFunc func(ctx context.Context) (*Session, error)

// OpenSession returns the production SessionFunc: launch the simulator
// binary when one is configured, then dial the bridge endpoint.
func OpenSession(cfg *config.Config, log *slog.Logger) SessionFunc {
	return func(ctx context.Context) (*Session, error) {
		var launcher *sim.Launcher
		if cfg.Simulator.Binary != "" {
			launcher = &sim.Launcher{
				Binary: cfg.Simulator.Binary,
				Addr:   cfg.Addr(),
				Grace:  cfg.Simulator.StartupGrace,
				Log:    log,
			}
			if err := launcher.Start(ctx); err != nil {
				return nil, err
			}
		}
		client, err := sim.Dial(ctx, cfg.Addr(), cfg.Simulator.ConnectTimeout)
		if err != nil {
			if launcher != nil {
				launcher.Stop()
			}
			return nil, err
		}
		return &Session{Client: client, launcher: launcher, log: log}, nil
	}
}

// NewSession wraps an already-connected client, typically a test fake.
func NewSession(client sim.Client) *Session {
	return &Session{Client: client, log: slog.Default()}
}

// Close tears the session down. Reset failures are logged rather than
// returned; a dying instance cannot always honor them.
func (s *Session) Close() error {
	ctx := context.Background()
	if err := s.Client.Reset(ctx); err != nil {
		s.log.Warn("world reset failed", "error", err)
	}
	err := s.Client.Close()
	if s.launcher != nil {
		err = errors.Join(err, s.launcher.Stop())
	}
	return err
}
