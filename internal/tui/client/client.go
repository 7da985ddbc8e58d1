// Package client connects the console to its profile daemon, starting the
// daemon when it is not running.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/rpc"
)

// ErrNotRunning is returned by Connect when no daemon answers and
// auto-start is off.
var ErrNotRunning = errors.New("daemon not running")

// DaemonBinary is the daemon executable name.
const DaemonBinary = "chatadmind"

// Options controls Connect.
type Options struct {
	AutoStart bool
	// Binary overrides the daemon executable.
	Binary string
	// Timeout bounds the wait for a started daemon. Zero means 10s.
	Timeout time.Duration
	// Stderr receives the started daemon's stderr.
	Stderr io.Writer
}

// Connect dials the profile daemon and checks it answers Status.
func Connect(profileName string, opts Options) (*rpc.Client, error) {
	socketPath := profile.SocketPath(profileName)
	if !Probe(socketPath) {
		if !opts.AutoStart {
			return nil, fmt.Errorf("%w for profile %q", ErrNotRunning, profileName)
		}
		if err := startDaemon(profileName, opts); err != nil {
			return nil, fmt.Errorf("start daemon: %w", err)
		}
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		if !waitForDaemon(socketPath, timeout) {
			return nil, errors.New("daemon did not become ready")
		}
	}
	return rpc.Dial(socketPath)
}

// Probe checks if a daemon is running and responsive on the socket.
func Probe(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}
	c, err := rpc.Dial(socketPath)
	if err != nil {
		return false
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Daemon.Status(ctx)
	return err == nil
}

func startDaemon(profileName string, opts Options) error {
	binary := opts.Binary
	if binary == "" {
		binary = DaemonBinary
		// Prefer a daemon installed next to this executable.
		if executable, err := os.Executable(); err == nil {
			sibling := filepath.Join(filepath.Dir(executable), DaemonBinary)
			if _, err := os.Stat(sibling); err == nil {
				binary = sibling
			}
		}
	}

	cmd := exec.Command(binary, "--profile", profileName)
	cmd.Stderr = opts.Stderr
	if err := cmd.Start(); err != nil {
		return err
	}
	// The daemon outlives the console.
	return cmd.Process.Release()
}

// waitForDaemon polls the daemon with a real RPC, not just a socket connect.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if Probe(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
