package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrCreate       = errors.New("create error")
	ErrDelete       = errors.New("delete error")
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	// A single connection avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_samples",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS samples (
						container_id TEXT NOT NULL,
						ts INTEGER NOT NULL,
						cpu_pct REAL NOT NULL,
						mem_bytes INTEGER NOT NULL,
						mem_limit INTEGER NOT NULL,
						net_in INTEGER NOT NULL,
						net_out INTEGER NOT NULL,
						PRIMARY KEY (container_id, ts)
					)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS samples`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

type dbSample struct {
	ContainerID string  `db:"container_id"`
	Timestamp   int64   `db:"ts"`
	CPUPct      float64 `db:"cpu_pct"`
	MemBytes    int64   `db:"mem_bytes"`
	MemLimit    int64   `db:"mem_limit"`
	NetIn       int64   `db:"net_in"`
	NetOut      int64   `db:"net_out"`
}

func toDBSample(r container.Record) dbSample {
	return dbSample{
		ContainerID: r.ContainerID,
		Timestamp:   r.Timestamp.UnixNano(),
		CPUPct:      r.CPUPct,
		MemBytes:    int64(r.MemBytes),
		MemLimit:    int64(r.MemLimit),
		NetIn:       int64(r.NetIn),
		NetOut:      int64(r.NetOut),
	}
}

func (s dbSample) toSample() container.Sample {
	return container.Sample{
		Timestamp: time.Unix(0, s.Timestamp).UTC(),
		CPUPct:    s.CPUPct,
		MemBytes:  uint64(s.MemBytes),
		MemLimit:  uint64(s.MemLimit),
		NetIn:     uint64(s.NetIn),
		NetOut:    uint64(s.NetOut),
	}
}

type Repository struct {
	db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, records ...container.Record) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	query := `INSERT OR IGNORE INTO samples (container_id, ts, cpu_pct, mem_bytes, mem_limit, net_in, net_out)
		VALUES (:container_id, :ts, :cpu_pct, :mem_bytes, :mem_limit, :net_in, :net_out)`
	for _, rec := range records {
		if _, err := tx.NamedExecContext(ctx, query, toDBSample(rec)); err != nil {
			_ = tx.Rollback()

			return fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, id string, from, to time.Time, offset, limit uint64) ([]container.Sample, uint64, error) {
	lower, upper := bounds(from, to)

	var total uint64
	countQuery := `SELECT COUNT(*) FROM samples WHERE container_id = ? AND ts >= ? AND ts <= ?`
	if err := r.db.GetContext(ctx, &total, countQuery, id, lower, upper); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rows []dbSample
	query := `SELECT * FROM samples WHERE container_id = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &rows, query, id, lower, upper, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	samples := make([]container.Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, row.toSample())
	}

	return samples, total, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE container_id = ?`, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func bounds(from, to time.Time) (lower, upper int64) {
	lower, upper = 0, int64(^uint64(0)>>1)
	if !from.IsZero() {
		lower = from.UnixNano()
	}
	if !to.IsZero() {
		upper = to.UnixNano()
	}

	return lower, upper
}
