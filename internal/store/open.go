package store

import (
	"context"
	"fmt"

	"diveanalytics-backend/internal/config"

	devenv "diveanalytics-backend/dev/env"
)

// Open creates the backend selected by the store configuration.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		path, err := devenv.ResolvePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, path)
	case "libsql":
		return OpenLibSQL(ctx, cfg.URL, cfg.AuthToken)
	case "badger":
		path, err := devenv.ResolvePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		return OpenBadger(path)
	case "mongo":
		return OpenMongo(ctx, cfg.URL, cfg.Database)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
