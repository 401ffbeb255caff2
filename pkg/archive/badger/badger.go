package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/dgraph-io/badger/v4"
)

var (
	ErrDBConnection = errors.New("badger database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrDelete       = errors.New("delete error")
)

const samplePrefix = "s:"

type Database struct {
	db *badger.DB
}

func NewDatabase(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

type Repository struct {
	db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// Keys embed a zero padded timestamp so that iteration order within a
// container prefix is chronological.
func sampleKey(id string, ts time.Time) []byte {
	return fmt.Appendf([]byte{}, "%s%s:%020d", samplePrefix, id, ts.UnixNano())
}

func containerPrefix(id string) []byte {
	return []byte(samplePrefix + id + ":")
}

func (r *Repository) Save(ctx context.Context, records ...container.Record) error {
	wb := r.db.db.NewWriteBatch()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			wb.Cancel()

			return err
		}
		val, err := json.Marshal(rec.Sample)
		if err != nil {
			wb.Cancel()

			return fmt.Errorf("marshal error: %w", err)
		}
		if err := wb.Set(sampleKey(rec.ContainerID, rec.Timestamp), val); err != nil {
			wb.Cancel()

			return fmt.Errorf("%w: %w", ErrCreate, err)
		}
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, id string, from, to time.Time, offset, limit uint64) ([]container.Sample, uint64, error) {
	prefix := containerPrefix(id)
	samples := make([]container.Sample, 0)
	var total uint64

	err := r.db.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		start := prefix
		if !from.IsZero() {
			start = sampleKey(id, from)
		}

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var s container.Sample
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
			}
			if !to.IsZero() && s.Timestamp.After(to) {
				break
			}

			total++
			if total <= offset || uint64(len(samples)) >= limit {
				continue
			}
			samples = append(samples, s)
		}

		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}

		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return samples, total, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.db.db.DropPrefix(containerPrefix(id)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}
