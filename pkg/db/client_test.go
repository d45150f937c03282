package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/storefront-cart/pkg/config"
)

func TestNewSQLiteClientPingsAndCloses(t *testing.T) {
	cfg := config.DBConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "cart.db"),
		MaxOpenConns: 1,
	}

	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if client.Dialect() != DialectSQLite {
		t.Fatalf("expected sqlite dialect, got %q", client.Dialect())
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{Driver: "oracle", DSN: "x"}, nil)
	if err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: "sqlite"}, nil); err == nil {
		t.Fatal("expected missing dsn error")
	}
}

func TestDialectorForDriverNames(t *testing.T) {
	cases := map[string]string{
		"":          DialectSQLite,
		" SQLite ":  DialectSQLite,
		"postgres":  DialectPostgres,
		"POSTGRES ": DialectPostgres,
	}
	for driver, want := range cases {
		_, dialect, err := dialectorFor(config.DBConfig{Driver: driver, DSN: "x"})
		if err != nil {
			t.Fatalf("driver %q: unexpected error %v", driver, err)
		}
		if dialect != want {
			t.Fatalf("driver %q: expected %q, got %q", driver, want, dialect)
		}
	}
}
