package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"time"
)

// Launcher starts and stops a simulator instance as a child process.
// One launcher owns at most one running instance at a time; each
// pipeline job gets a fresh instance so no state leaks across runs.
type Launcher struct {
	// Binary is the simulator executable. Args are appended to the
	// off-screen defaults.
	Binary string
	Args   []string

	// Addr is the bridge endpoint polled for readiness.
	Addr string

	// Grace bounds how long Start waits for the instance to accept
	// connections before giving up.
	Grace time.Duration

	Log *slog.Logger

	cmd *exec.Cmd
}

// pollInterval paces the readiness probe during startup.
const pollInterval = 500 * time.Millisecond

// Start launches the simulator off-screen and blocks until its bridge
// endpoint accepts TCP connections, or until the grace period expires.
// On timeout the child is stopped and ErrStartupTimeout returned.
func (l *Launcher) Start(ctx context.Context) error {
	if l.cmd != nil {
		return errors.New("simulator already running")
	}

	args := append([]string{"-RenderOffScreen"}, l.Args...)
	cmd := exec.Command(l.Binary, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting simulator %s: %w", l.Binary, err)
	}
	l.cmd = cmd
	l.Log.Info("simulator starting", "binary", l.Binary, "pid", cmd.Process.Pid)

	deadline := time.Now().Add(l.Grace)
	for {
		conn, err := net.DialTimeout("tcp", l.Addr, pollInterval)
		if err == nil {
			conn.Close()
			l.Log.Info("simulator ready", "addr", l.Addr)
			return nil
		}
		if time.Now().After(deadline) {
			l.Stop()
			return fmt.Errorf("%w: %s after %s", ErrStartupTimeout, l.Addr, l.Grace)
		}
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Stop terminates the running instance. It is idempotent and tolerates
// an instance that already exited on its own.
func (l *Launcher) Stop() error {
	if l.cmd == nil {
		return nil
	}
	cmd := l.cmd
	l.cmd = nil

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stopping simulator: %w", err)
	}
	// Reap the child; the kill makes Wait's error uninteresting.
	cmd.Wait()
	l.Log.Info("simulator stopped", "pid", cmd.Process.Pid)
	return nil
}
