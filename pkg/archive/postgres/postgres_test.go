package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/archive/postgres"
	"github.com/google/uuid"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *postgres.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	container, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16.2-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start container: %s", err)
	}

	port := container.GetPort("5432/tcp")

	pool.MaxWait = 120 * time.Second
	if err := pool.Retry(func() error {
		url := fmt.Sprintf("host=localhost port=%s user=test dbname=test password=test sslmode=disable", port)
		db, err := sql.Open("pgx", url)
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Ping()
	}); err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	testDB, err = postgres.NewDatabase("localhost", port, "test", "test", "test", "disable")
	if err != nil {
		log.Fatalf("Could not setup test DB connection: %s", err)
	}

	code := m.Run()

	testDB.Close()
	if err := pool.Purge(container); err != nil {
		log.Fatalf("Could not purge container: %s", err)
	}

	os.Exit(code)
}

func TestRepository(t *testing.T) {
	repo := postgres.NewRepository(testDB)
	ctx := context.Background()
	id := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Microsecond)

	records := make([]container.Record, 0, 5)
	for i := range 5 {
		records = append(records, container.Record{
			ContainerID: id,
			Sample: container.Sample{
				Timestamp: base.Add(time.Duration(i) * time.Second),
				CPUPct:    float64(i * 10),
				MemBytes:  uint64(i) << 20,
				MemLimit:  1 << 30,
			},
		})
	}
	require.NoError(t, repo.Save(ctx, records...))
	require.NoError(t, repo.Save(ctx, records[0]))
	require.NoError(t, repo.Save(ctx))

	cases := []struct {
		desc   string
		from   time.Time
		to     time.Time
		offset uint64
		limit  uint64
		count  int
		total  uint64
	}{
		{desc: "list all", limit: 10, count: 5, total: 5},
		{desc: "list with limit", limit: 2, count: 2, total: 5},
		{desc: "list with offset", offset: 3, limit: 10, count: 2, total: 5},
		{desc: "list from", from: base.Add(2 * time.Second), limit: 10, count: 3, total: 3},
		{desc: "list to", to: base.Add(time.Second), limit: 10, count: 2, total: 2},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			samples, total, err := repo.List(ctx, id, tc.from, tc.to, tc.offset, tc.limit)
			require.NoError(t, err)
			assert.Len(t, samples, tc.count)
			assert.Equal(t, tc.total, total)
			for i := 1; i < len(samples); i++ {
				assert.True(t, samples[i].Timestamp.After(samples[i-1].Timestamp))
			}
		})
	}

	require.NoError(t, repo.Delete(ctx, id))
	samples, total, err := repo.List(ctx, id, time.Time{}, time.Time{}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Zero(t, total)
}
