package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// postgresFixture is one PostgreSQL container shared by the whole package.
var postgresFixture struct {
	once sync.Once
	dsn  string
	err  error
}

// testCleanup terminates the shared container; TestMain calls it.
var testCleanup func()

func startPostgres(ctx context.Context) (string, func(), error) {
	c, err := pgcontainer.Run(ctx,
		"postgres:18-alpine",
		pgcontainer.WithDatabase("mediagate"),
		pgcontainer.WithUsername("mediagate"),
		pgcontainer.WithPassword("mediagate"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres container: %w", err)
	}

	terminate := func() { _ = testcontainers.TerminateContainer(c) }

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, fmt.Errorf("postgres connection string: %w", err)
	}
	return dsn, terminate, nil
}

// getSharedPostgresDatabase returns the DSN of the shared container, starting
// it on first use. Skipped in short mode.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres e2e test in short mode")
	}

	postgresFixture.once.Do(func() {
		postgresFixture.dsn, testCleanup, postgresFixture.err = startPostgres(context.Background())
	})

	if postgresFixture.err != nil {
		t.Fatalf("postgres unavailable: %v", postgresFixture.err)
	}
	return postgresFixture.dsn
}
