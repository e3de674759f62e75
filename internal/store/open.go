package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/db"
)

const (
	DriverPostgres = "postgres"
	DriverPebble   = "pebble"
	DriverMemory   = "memory"
)

type Options struct {
	Driver    string
	PebbleDir string
	DB        db.Params
}

// Open builds the store selected by opts.Driver.
func Open(ctx context.Context, opts Options, log *zap.Logger) (Store, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		pool, err := db.Connect(ctx, opts.DB, log)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	case DriverPebble:
		p, err := OpenPebble(opts.PebbleDir, nil)
		if err != nil {
			return nil, err
		}
		log.Info("opened pebble store", zap.String("dir", opts.PebbleDir))
		return p, nil
	case DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
