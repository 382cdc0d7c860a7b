package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	host := os.Getenv("INKWELL_DATABASE_HOST")
	if host == "" {
		host = "localhost"
	}
	return Config{
		Host:            host,
		Port:            5432,
		User:            "inkwell",
		Password:        "inkwell_dev_password",
		Database:        "inkwell_dev",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		Timeout:         3 * time.Second,
	}
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "ink", Password: "p@ss word", Database: "blog"}

	assert.Equal(t, "host=db port=5433 user=ink password=p@ss word dbname=blog sslmode=disable connect_timeout=5", cfg.KeywordDSN())

	u := cfg.URL()
	assert.True(t, strings.HasPrefix(u, "postgres://ink:p%40ss%20word@db:5433/blog?"), u)
	assert.Contains(t, u, "sslmode=disable")
	assert.Contains(t, u, "connect_timeout=5")
}

func TestStatements(t *testing.T) {
	stmts := statements(Schema())
	require.NotEmpty(t, stmts)
	for _, s := range stmts {
		assert.True(t, strings.HasSuffix(s, ";"), s)
		assert.False(t, strings.HasPrefix(s, "--"), s)
	}
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE IF NOT EXISTS users"))

	assert.Equal(t, []string{"SELECT 1;", "SELECT 2"}, statements("-- note\nSELECT 1;\n\nSELECT 2"))
}

func TestNewDB(t *testing.T) {
	db, err := NewDB(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.HealthCheck(ctx))
	assert.GreaterOrEqual(t, db.Stats().MaxOpenConnections, 5)

	// cancelled context
	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.HealthCheck(cancelCtx))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := NewDB(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))
}

func TestNewPGXPool(t *testing.T) {
	pool, err := NewPGXPool(testConfig())
	if err != nil {
		t.Skipf("Skipping test: PostgreSQL not available: %v", err)
		return
	}
	defer pool.Close()

	var one int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}
