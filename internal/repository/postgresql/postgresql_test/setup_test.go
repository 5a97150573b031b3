package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestDatabaseSetup holds a migrated throwaway Postgres instance.
type TestDatabaseSetup struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// NewTestDatabase starts a Postgres container, migrates it and connects.
// It is skipped in -short mode.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("payroll_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "payroll-repository",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	setup := &TestDatabaseSetup{Container: container}
	t.Cleanup(func() { setup.Close(t) })

	setup.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.MigrateUp(setup.URL))

	setup.DB, err = database.NewPostgreSQLDB(ctx, setup.URL, database.PoolOptions{MaxConns: 10, MinConns: 1})
	require.NoError(t, err)

	return setup
}

func (s *TestDatabaseSetup) Close(t *testing.T) {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Container != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate test container: %v", err)
		}
	}
}
