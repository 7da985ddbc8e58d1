package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.chatadmin, or $CHATADMIN_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("CHATADMIN_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatadmin")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// SocketPath returns the UDS socket path the daemon listens on.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// SQLitePath returns the sqlite document store path.
func SQLitePath(name string) string {
	return filepath.Join(Dir(name), "chatadmin.db")
}

// BoltPath returns the bbolt document store path.
func BoltPath(name string) string {
	return filepath.Join(Dir(name), "chatadmin.bolt")
}

// TokenPath returns the file holding the operator's session token.
func TokenPath(name string) string {
	return filepath.Join(Dir(name), "token")
}

// SecretPath returns the file holding the daemon's token signing secret.
func SecretPath(name string) string {
	return filepath.Join(Dir(name), "secret")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// DaemonLogPath returns the daemon log file path.
func DaemonLogPath(name string) string {
	return filepath.Join(LogDir(name), "chatadmind.log")
}

// ConsoleLogPath returns the console log file path.
func ConsoleLogPath(name string) string {
	return filepath.Join(LogDir(name), "chatadmin.log")
}

// ExportDir returns the directory spreadsheet exports are written to.
func ExportDir(name string) string {
	return filepath.Join(Dir(name), "exports")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
		ExportDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
