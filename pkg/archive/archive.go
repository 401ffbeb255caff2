package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/archive/badger"
	"github.com/absmach/metricus/pkg/archive/postgres"
	"github.com/absmach/metricus/pkg/archive/sqlite"
)

// Repository persists samples beyond the in-memory window.
type Repository interface {
	Save(ctx context.Context, records ...container.Record) error
	List(ctx context.Context, id string, from, to time.Time, offset, limit uint64) ([]container.Sample, uint64, error)
	Delete(ctx context.Context, id string) error
}

var (
	_ Repository = (*memoryRepository)(nil)
	_ Repository = (*badger.Repository)(nil)
	_ Repository = (*sqlite.Repository)(nil)
	_ Repository = (*postgres.Repository)(nil)
)

type Config struct {
	Type string `env:"TYPE" envDefault:"none"`

	PostgresHost    string `env:"POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER"    envDefault:"metricus"`
	PostgresPass    string `env:"POSTGRES_PASS"    envDefault:"metricus"`
	PostgresDB      string `env:"POSTGRES_DB"      envDefault:"metricus"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"./metricus.db"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`
}

// New opens the configured backend. For type "none" both return values
// are nil. The closer is nil for the in-memory backend.
func New(cfg Config) (Repository, io.Closer, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return NewMemoryRepository(), nil, nil
	case "badger":
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}

		return badger.NewRepository(db), db, nil
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}

		return sqlite.NewRepository(db), db, nil
	case "postgres":
		db, err := postgres.NewDatabase(
			cfg.PostgresHost,
			cfg.PostgresPort,
			cfg.PostgresUser,
			cfg.PostgresPass,
			cfg.PostgresDB,
			cfg.PostgresSSLMode,
		)
		if err != nil {
			return nil, nil, err
		}

		return postgres.NewRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}
