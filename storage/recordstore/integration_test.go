//go:build integration

package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/typed"
)

func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "wire",
			"POSTGRES_PASSWORD": "wire",
			"POSTGRES_DB":       "wire",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://wire:wire@%s:%s/wire?sslmode=disable", host, port.Port())
}

func TestIntegration_Postgres(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	for _, driver := range []string{"postgres", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			db, err := sql.Open(driver, dsn)
			require.NoError(t, err)
			defer db.Close()
			require.NoError(t, db.PingContext(ctx))

			dialect, err := DialectFor(driver)
			require.NoError(t, err)
			s, err := New(db, dialect, WithClock(tickingClock()))
			require.NoError(t, err)

			table := "it_" + driver
			for i := 0; i < 6; i++ {
				rec := record.New(
					record.F("seq", typed.Long(int64(i))),
					record.F("label", typed.String("r")),
					record.F("ok", typed.Bool(i%2 == 0)),
				)
				require.NoError(t, s.Insert(ctx, table, []*record.Record{rec}))
			}

			cols, err := s.Columns(ctx, db, table)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{
				"TIMESTAMP": "bigint", "seq": "bigint", "label": "text", "ok": "boolean",
			}, cols)

			// type change replaces the column
			require.NoError(t, s.Insert(ctx, table, []*record.Record{record.New(record.F("label", typed.Double(1)))}))
			cols, err = s.Columns(ctx, db, table)
			require.NoError(t, err)
			assert.Equal(t, "double precision", cols["label"])

			require.NoError(t, s.Truncate(ctx, table, 3))
			n, err := s.Count(ctx, table)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			var lo int64
			require.NoError(t, db.QueryRowContext(ctx, `SELECT MIN(seq) FROM "`+table+`"`).Scan(&lo))
			assert.Equal(t, int64(4), lo, "newest rows survive")

			require.NoError(t, s.Truncate(ctx, table, 0))
			n, err = s.Count(ctx, table)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}
