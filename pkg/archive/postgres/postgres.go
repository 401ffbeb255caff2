package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/metricus/container"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
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

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
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
						container_id VARCHAR(128) NOT NULL,
						ts TIMESTAMPTZ NOT NULL,
						cpu_pct DOUBLE PRECISION NOT NULL,
						mem_bytes BIGINT NOT NULL,
						mem_limit BIGINT NOT NULL,
						net_in BIGINT NOT NULL,
						net_out BIGINT NOT NULL,
						PRIMARY KEY (container_id, ts)
					)`,
				},
				Down: []string{
					`DROP TABLE IF EXISTS samples`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("database migration error: %w", err)
	}

	return nil
}

type dbSample struct {
	ContainerID string    `db:"container_id"`
	Timestamp   time.Time `db:"ts"`
	CPUPct      float64   `db:"cpu_pct"`
	MemBytes    int64     `db:"mem_bytes"`
	MemLimit    int64     `db:"mem_limit"`
	NetIn       int64     `db:"net_in"`
	NetOut      int64     `db:"net_out"`
}

type Repository struct {
	db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, records ...container.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]dbSample, 0, len(records))
	for _, rec := range records {
		rows = append(rows, dbSample{
			ContainerID: rec.ContainerID,
			Timestamp:   rec.Timestamp,
			CPUPct:      rec.CPUPct,
			MemBytes:    int64(rec.MemBytes),
			MemLimit:    int64(rec.MemLimit),
			NetIn:       int64(rec.NetIn),
			NetOut:      int64(rec.NetOut),
		})
	}

	query := `INSERT INTO samples (container_id, ts, cpu_pct, mem_bytes, mem_limit, net_in, net_out)
		VALUES (:container_id, :ts, :cpu_pct, :mem_bytes, :mem_limit, :net_in, :net_out)
		ON CONFLICT (container_id, ts) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, id string, from, to time.Time, offset, limit uint64) ([]container.Sample, uint64, error) {
	var upper any
	if !to.IsZero() {
		upper = to
	}

	var total uint64
	countQuery := `SELECT COUNT(*) FROM samples WHERE container_id = $1 AND ts >= $2 AND ($3::timestamptz IS NULL OR ts <= $3)`
	if err := r.db.GetContext(ctx, &total, countQuery, id, from, upper); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rows []dbSample
	query := `SELECT * FROM samples WHERE container_id = $1 AND ts >= $2 AND ($3::timestamptz IS NULL OR ts <= $3)
		ORDER BY ts ASC LIMIT $4 OFFSET $5`
	if err := r.db.SelectContext(ctx, &rows, query, id, from, upper, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBScan, err)
	}

	samples := make([]container.Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, container.Sample{
			Timestamp: row.Timestamp.UTC(),
			CPUPct:    row.CPUPct,
			MemBytes:  uint64(row.MemBytes),
			MemLimit:  uint64(row.MemLimit),
			NetIn:     uint64(row.NetIn),
			NetOut:    uint64(row.NetOut),
		})
	}

	return samples, total, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM samples WHERE container_id = $1`, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
