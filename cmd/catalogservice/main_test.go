package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"catalog-service/internal/cache"
	"catalog-service/internal/config"
	"catalog-service/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"postgres url", "postgres://catalog:secret@db:5432/catalog?sslmode=disable", "postgres://catalog:xxxxx@db:5432/catalog?sslmode=disable"},
		{"no password", "postgres://db:5432/catalog", "postgres://db:5432/catalog"},
		{"sqlite path", "catalog.db", "catalog.db"},
		{"sqlite memory", ":memory:", ":memory:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactDSN(tt.dsn))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "catalogservice dev")
}

func TestLookupRejectsBadID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"lookup", "abc"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid movie id")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	mem, err := openStore(ctx, config.StoreConfig{Driver: "memory"}, logger)
	require.NoError(t, err)
	require.NoError(t, mem.Ping(ctx))
	require.NoError(t, mem.Close())

	lite, err := openStore(ctx, config.StoreConfig{Driver: "sqlite", DSN: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, lite.Ping(ctx))
	require.NoError(t, lite.Close())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.GRPC.Addr = "127.0.0.1:0"
	cfg.Store = config.StoreConfig{Driver: "memory"}
	cfg.Cache.Backend = cache.BackendMemory
	cfg.Log.Level = "disabled"
	cfg.HTTP.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, &cfg) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
