package docstore

import (
	"context"
	"fmt"

	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/profile"
)

// Open opens the backend selected by cfg.Driver for the given profile.
func Open(ctx context.Context, cfg config.Store, profileName string) (Store, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		return OpenSQLite(profile.SQLitePath(profileName))
	case config.DriverBolt:
		return OpenBolt(profile.BoltPath(profileName))
	case config.DriverRedis:
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = "chatadmin"
		}
		return OpenRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			// Profiles sharing a server stay isolated.
			Prefix: prefix + ":" + profileName,
		})
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
