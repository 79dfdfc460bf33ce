//go:build integration

package table

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/txn2/dataexec/pkg/database"
	"github.com/txn2/dataexec/pkg/frame"
)

func TestPostgresRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	u, err := url.Parse(connStr)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	password, _ := u.User.Password()

	params := database.Params{
		Driver:   database.DriverPostgres,
		User:     u.User.Username(),
		Password: password,
		Host:     u.Hostname(),
		Port:     port,
		Name:     "testdb",
		SSLMode:  "disable",
	}
	db, err := database.Open(ctx, params, database.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	e, err := NewExec(db, params.Driver)
	require.NoError(t, err)

	t.Run("schema records", func(t *testing.T) {
		users, err := e.CreateTableClass([]string{"id", "name"}, "users", "User")
		require.NoError(t, err)
		require.NoError(t, e.CreateTables(ctx))

		a, _ := users.Record("u1", "Ann")
		b, _ := users.Record("u2", "Bob")
		require.NoError(t, e.Add(ctx, Records{a, b}))

		f, err := e.GetDF(ctx, "users", ReadOptions{Where: map[string]any{"id": []string{"u2"}}})
		require.NoError(t, err)
		assert.Equal(t, [][]any{{"u2", "Bob"}}, f.Rows())
	})

	t.Run("tabular", func(t *testing.T) {
		src, err := frame.New([]string{"Start Date", "Final Value"},
			[]any{"2021-01-01", 1.5},
			[]any{"2021-01-02", 2.5},
		)
		require.NoError(t, err)

		require.NoError(t, e.Add(ctx, Tabular{Frame: src, Name: "scores", Index: true}))
		err = e.Add(ctx, Tabular{Frame: src, Name: "scores", IfExists: IfExistsFail})
		assert.ErrorIs(t, err, ErrTableExists)

		f, err := e.GetDF(ctx, "scores", ReadOptions{OrderBy: []string{"index"}})
		require.NoError(t, err)
		assert.Equal(t, []any{int64(0), "2021-01-01", 1.5}, f.Row(0))
	})

	names, err := e.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"scores", "users"}, names)
}
