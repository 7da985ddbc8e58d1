package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConnectWithoutDaemon(t *testing.T) {
	dir, err := os.MkdirTemp("/tmp", "chatadmin-c-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("CHATADMIN_HOME", dir)

	if _, err := Connect("main", Options{}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Connect error = %v, want ErrNotRunning", err)
	}

	_, err = Connect("main", Options{
		AutoStart: true,
		Binary:    filepath.Join(dir, "missing-daemon"),
		Timeout:   time.Second,
	})
	if err == nil {
		t.Error("Connect started a missing binary")
	}
}

func TestProbeStaleSocket(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daemon.sock")
	if Probe(path) {
		t.Error("Probe succeeded without a socket")
	}
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if Probe(path) {
		t.Error("Probe succeeded on a plain file")
	}
}
