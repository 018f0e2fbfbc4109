package main

import (
	"context"
	"fmt"

	"task-tracker/backend/config"
	"task-tracker/backend/logging"
	"task-tracker/backend/repositories"
	"task-tracker/backend/repositories/mongorepo"
	"task-tracker/backend/repositories/sqlrepo"
)

// openStore connects to the configured backend and applies its schema.
func openStore(ctx context.Context, cfg config.StorageConfig) (repositories.Store, error) {
	var (
		store repositories.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err = sqlrepo.Open(ctx, sqlrepo.SQLite, cfg.SQLitePath)
	case config.DriverMySQL:
		store, err = sqlrepo.Open(ctx, sqlrepo.MySQL, cfg.MySQLDSN)
	case config.DriverMongo:
		store, err = mongorepo.Open(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		logging.Logger.Errorf("Event ID: DB_CONNECTION_FAILED, Description: Opening %s storage failed: %v", cfg.Driver, err)
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_READY, Description: Using %s storage", cfg.Driver)
	return store, nil
}
