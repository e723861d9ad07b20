package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/dakgu/siack"
	"github.com/dakgu/siack/database/sqlite"
	"github.com/stretchr/testify/require"
)

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

// setupTestDB returns a migrated in-memory database with unique table names.
func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", randomTables(t))
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

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
