package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		store       string
		ledger      string
		expectedErr string
	}{
		{name: "postgres everywhere", store: BackendPostgres, ledger: BackendPostgres},
		{name: "redis ledger", store: BackendPostgres, ledger: BackendRedis},
		{name: "all in memory", store: BackendMemory, ledger: BackendMemory},
		{name: "memory store with redis ledger", store: BackendMemory, ledger: BackendRedis},
		{name: "unknown store", store: "dynamo", ledger: BackendRedis, expectedErr: `unsupported store backend "dynamo"`},
		{name: "unknown ledger", store: BackendPostgres, ledger: "etcd", expectedErr: `unsupported ledger backend "etcd"`},
		{name: "memory ledger over postgres", store: BackendPostgres, ledger: BackendMemory, expectedErr: "memory ledger requires the memory store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: Backend{Backend: tt.store}, Ledger: Backend{Backend: tt.ledger}}

			err := cfg.Validate()

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_UsesPostgres(t *testing.T) {
	assert.True(t, (&Config{Store: Backend{BackendPostgres}, Ledger: Backend{BackendRedis}}).UsesPostgres())
	assert.True(t, (&Config{Store: Backend{BackendMemory}, Ledger: Backend{BackendPostgres}}).UsesPostgres())
	assert.False(t, (&Config{Store: Backend{BackendMemory}, Ledger: Backend{BackendRedis}}).UsesPostgres())
}

func TestConfig_GetDatabaseURL(t *testing.T) {
	cfg := &Config{Database: Database{
		Host:     "db",
		Port:     5433,
		User:     "orders",
		Password: "secret",
		Database: "orders",
		SSLMode:  "require",
	}}
	assert.Equal(t, "postgres://orders:secret@db:5433/orders?sslmode=require", cfg.GetDatabaseURL())

	cfg.Database.URL = "postgres://override"
	assert.Equal(t, "postgres://override", cfg.GetDatabaseURL())
}

func TestReadConfig(t *testing.T) {
	t.Run("defaults with env overrides", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "missing-environment")
		t.Setenv("ORDER_STORE_BACKEND", BackendMemory)
		t.Setenv("ORDER_LEDGER_BACKEND", BackendMemory)
		t.Setenv("ORDER_PORT", "9090")

		cfg, err := ReadConfig()
		require.NoError(t, err)

		assert.Equal(t, "order-service", cfg.ServiceName)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, BackendMemory, cfg.Store.Backend)
		assert.Equal(t, 5*time.Second, cfg.Downstream.Timeout)
		assert.Equal(t, 720*time.Hour, cfg.Saga.ReturnWindow)
		assert.Equal(t, uint(5), cfg.Saga.CASMaxAttempts)
		assert.Equal(t, int32(16), cfg.Subscriber.Workers)
		assert.Zero(t, cfg.Redis.LedgerTTL)
		assert.False(t, cfg.UsesPostgres())
	})

	t.Run("local file", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "local")

		cfg, err := ReadConfig()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, BackendRedis, cfg.Ledger.Backend)
		assert.True(t, cfg.AWS.Enabled)
		assert.Equal(t, "http://localhost:4566", cfg.AWS.EndpointSQS)
	})

	t.Run("invalid backend", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "missing-environment")
		t.Setenv("ORDER_LEDGER_BACKEND", "etcd")

		_, err := ReadConfig()
		assert.Error(t, err)
	})
}
