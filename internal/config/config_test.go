package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMongo, cfg.StoreDriver)
	assert.Equal(t, "mentora", cfg.MongoDatabase)
	assert.Equal(t, AuthProviderLocal, cfg.AuthProvider)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers())
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.CountersCanDrift())

	cfg.MongoTransactions = true
	assert.False(t, cfg.CountersCanDrift())
	cfg.StoreDriver = StoreDriverPostgres
	assert.False(t, cfg.CountersCanDrift())
}

func TestLoadConfig_RequiresSecretForLocalAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver:  StoreDriverPostgres,
			DatabaseURL:  "postgres://localhost/mentora",
			AuthProvider: AuthProviderLocal,
			JWTSecret:    "0123456789abcdef",
			JWTTTL:       time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown store", func(c *Config) { c.StoreDriver = "sqlite" }, true},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, true},
		{"mongo without database", func(c *Config) { c.StoreDriver = StoreDriverMongo; c.MongoURI = "mongodb://x" }, true},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }, true},
		{"unknown provider", func(c *Config) { c.AuthProvider = "ldap" }, true},
		{"casdoor without endpoint", func(c *Config) { c.AuthProvider = AuthProviderCasdoor }, true},
		{"casdoor configured", func(c *Config) {
			c.AuthProvider = AuthProviderCasdoor
			c.JWTSecret = ""
			c.Casdoor = CasdoorConfig{Endpoint: "https://auth", ClientID: "id", Cert: "cert"}
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
