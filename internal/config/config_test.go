package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_DEPLOYMENTS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 768, cfg.Retrieval.EmbeddingDimension)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 3, cfg.Retrieval.DefaultTripDays)
	assert.Equal(t, 10.0, cfg.Accommodation.DefaultRadiusKm)
	assert.Equal(t, "default", cfg.Router.DefaultDeployment)
	assert.Nil(t, cfg.AI.Deployments)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_PROVIDER", "langchain")
	t.Setenv("AI_DEPLOYMENTS", "gpt-4.1-mini, gpt-4.1-nano ,")
	t.Setenv("RETRIEVAL_TOP_K", "8")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("ROUTER_POOL_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "langchain", cfg.AI.Provider)
	assert.Equal(t, []string{"gpt-4.1-mini", "gpt-4.1-nano"}, cfg.AI.Deployments)
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 4, cfg.Router.PoolSize, "invalid ints fall back to the default")
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("AI_PROVIDER", "azure")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_PROVIDER")
}

func TestGetPostgreSQLDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  PostgreSQLConfig
		want string
	}{
		{
			name: "explicit DSN wins",
			cfg:  PostgreSQLConfig{DSN: "postgres://u:p@db:5432/travel", Host: "ignored"},
			want: "postgres://u:p@db:5432/travel",
		},
		{
			name: "assembled from fields",
			cfg:  PostgreSQLConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "travel", SSLMode: "disable"},
			want: "host=db port=5433 user=u password=p dbname=travel sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{PostgreSQL: tt.cfg}
			assert.Equal(t, tt.want, cfg.GetPostgreSQLDSN())
		})
	}
}
