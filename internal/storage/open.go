package storage

import (
	"context"
	"fmt"
	"path/filepath"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Options struct {
	Driver string
	// Path is the directory for the file driver and the database file for
	// sqlite.
	Path        string
	DSN         string
	RedisAddr   string
	RedisPrefix string
}

func KnownDriver(d string) bool {
	switch d {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverRedis:
		return true
	}
	return false
}

// Open builds the configured substrate.
func Open(ctx context.Context, o Options) (KV, error) {
	switch o.Driver {
	case DriverMemory:
		return NewMemKV(), nil
	case DriverFile, "":
		return NewFileKV(o.Path)
	case DriverSQLite:
		path := o.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "teacounter.db")
		}
		return NewSQLiteKV(ctx, path)
	case DriverPostgres:
		return OpenPostgresKV(ctx, o.DSN)
	case DriverRedis:
		return OpenRedisKV(ctx, o.RedisAddr, o.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", o.Driver)
	}
}
