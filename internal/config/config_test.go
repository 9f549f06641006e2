package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/does-not-exist.toml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "datagov-chat", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, "mysql", cfg.Store.Backend)
	assert.Equal(t, "https://data.gov.ie/api/3/action/package_list", cfg.Catalog.Endpoint)
	assert.Equal(t, 10, cfg.Index.TopK)
	assert.Equal(t, cfg.LLM.Model, cfg.ClassifierModel(), "classifier model falls back to chat model")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/does-not-exist.toml")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("LLM_CLASSIFIER_MODEL", "mistral-small-latest")
	t.Setenv("INDEX_TOP_K", "bogus")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "mistral-small-latest", cfg.ClassifierModel())
	assert.Equal(t, 10, cfg.Index.TopK, "unparseable int falls back to default")
}

func TestMySQLDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", "testdata/does-not-exist.toml")
	t.Setenv("MYSQL_USER", "chat")
	t.Setenv("MYSQL_PASSWORD", "secret")
	t.Setenv("MYSQL_DB", "conversations")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t,
		"chat:secret@tcp(127.0.0.1:3306)/conversations?parseTime=true&loc=Local&charset=utf8mb4",
		cfg.MySQLDSN())
}
