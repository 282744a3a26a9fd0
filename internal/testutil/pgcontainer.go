// Package testutil starts throwaway PostgreSQL databases for tests that need
// real row locks and constraint enforcement.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wims/backend/internal/infrastructure/migration"
)

// PostgresDB is a migrated database inside a container owned by one test.
type PostgresDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewPostgresDB starts postgres:16-alpine, applies the embedded migrations and
// terminates the container when the test finishes.
func NewPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("wims_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("wims-test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migration.EmbeddedSource(), nil)
	require.NoError(t, err)
	require.NoError(t, m.Up(), "failed to apply migrations")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	gormSQL, err := db.DB()
	require.NoError(t, err)
	gormSQL.SetMaxOpenConns(32)

	pdb := &PostgresDB{DB: db, SqlDB: gormSQL, DSN: dsn, t: t}
	t.Cleanup(func() {
		_ = gormSQL.Close()
		_ = m.Close()
	})
	return pdb
}

// Truncate empties every application table, keeping the migration record.
func (p *PostgresDB) Truncate() {
	p.t.Helper()

	var tables []string
	err := p.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename != 'schema_migrations'
	`).Scan(&tables).Error
	require.NoError(p.t, err)

	for _, table := range tables {
		require.NoError(p.t, p.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %q CASCADE", table)).Error)
	}
}
