package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/database/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool      *pgxpool.Pool
	testPoolOnce  sync.Once
	testPoolErr   error
	testContainer *pgcontainer.PostgresContainer
)

// TestMain terminates the shared container after all tests ran.
func TestMain(m *testing.M) {
	code := m.Run()

	if testPool != nil {
		testPool.Close()
	}
	if testContainer != nil {
		if err := testcontainers.TerminateContainer(testContainer); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate container: %s\n", err)
		}
	}

	os.Exit(code)
}

// getSharedTestDatabase returns a pool backed by one container for the whole
// package run. Tests are skipped with -short.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testPoolErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		testContainer = pgContainer

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testPoolErr = fmt.Errorf("connection string: %w", err)
			return
		}

		testPool, testPoolErr = pgxpool.New(ctx, connectionStr)
	})

	require.NoError(t, testPoolErr)
	return testPool
}

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

func randomTables(t *testing.T) siack.Tables {
	t.Helper()
	suffix := getRandomString(t)
	return siack.Tables{Files: "files_" + suffix, Users: "users_" + suffix}
}

func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// setupTestDB returns a migrated database with unique table names. The
// tables are dropped when the test ends.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()
	tables := randomTables(t)

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err, "failed to connect")

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() {
		_ = postgres.DropTables(ctx, pool, tables)
		_ = db.Close()
	})

	return db
}

func createUser(t *testing.T, users siack.UserRepo, username string) siack.User {
	t.Helper()
	u, err := users.Create(context.Background(), siack.User{
		Username:     username,
		PasswordHash: "$2a$10$hash",
		Email:        username + "@example.com",
		Nickname:     username,
		Authorities:  []string{"ROLE_USER"},
	})
	require.NoError(t, err, "create user")
	return u
}
