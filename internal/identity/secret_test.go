package identity

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSecretConfigured(t *testing.T) {
	got, err := LoadSecret(filepath.Join(t.TempDir(), "secret"), "from-config")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "from-config" {
		t.Errorf("secret = %q, want from-config", got)
	}
}

func TestLoadSecretGeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")

	first, err := LoadSecret(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 32 {
		t.Errorf("generated secret length = %d, want 32", len(first))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("secret permission = %o, want 0600", perm)
	}

	second, err := LoadSecret(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("second load returned a different secret")
	}
}

func TestLoadSecretCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("not hex!"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSecret(path, ""); err == nil {
		t.Error("expected error for corrupt secret")
	}
}
