package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "2024-10-21", cfg.AI.APIVersion)
	assert.Equal(t, ConverterDocconv, cfg.Converter.Type)
	assert.Equal(t, IndexBadger, cfg.Index.Type)
	assert.Equal(t, 1024, cfg.Ingestion.MaxIDLength)
	assert.Equal(t, 7500, cfg.Ingestion.BatchMaxTokens)
	assert.Equal(t, 2000, cfg.Ingestion.BatchMaxItems)
	assert.Equal(t, 100000, cfg.Ingestion.SingleShotLimit)
	assert.Equal(t, 50000, cfg.Ingestion.SectionTokens)
	assert.Equal(t, 500, cfg.Ingestion.SectionOverlap)
	assert.Equal(t, 1000, cfg.Indexing.MaxDocs)
	assert.Equal(t, 16*1024*1024, cfg.Indexing.MaxBytes)
	assert.Equal(t, 1536, cfg.Indexing.VectorDimensions)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	data := `
ai:
  provider: gemini
  api_key: g-key
index:
  type: postgres
  postgres:
    database_url: postgres://localhost/folio
ingestion:
  batch_max_items: 16
server:
  allowed_origins: ["https://app.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.AnalystModel)
	assert.Equal(t, IndexPostgres, cfg.Index.Type)
	assert.Equal(t, "documents", cfg.Index.Postgres.Table)
	assert.Equal(t, 16, cfg.Ingestion.BatchMaxItems)
	assert.Equal(t, 7500, cfg.Ingestion.BatchMaxTokens)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unclosed"), 0o600))

	_, err := load(path, env(nil))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	cfg, err := load("", env(map[string]string{
		"AZURE_OPENAI_ENDPOINT":         "https://res.openai.azure.com",
		"AZURE_OPENAI_DEPLOYMENT_NAME":  "gpt-4o",
		"AZURE_OPENAI_API_KEY":          "aoai",
		"DOC_INTEL_ENDPOINT":            "https://di.cognitiveservices.azure.com",
		"DOCUMENT_INTELLIGENCE_KEY":     "di-key",
		"AZURE_SEARCH_SERVICE_ENDPOINT": "https://search.windows.net",
		"AZURE_SEARCH_INDEX_NAME":       "docs",
		"AZURE_SEARCH_API_KEY":          "s-key",
		"JWT_SECRET":                    "secret",
		"PORT":                          "9000",
		"ALLOWED_ORIGINS":               "https://a.example, https://b.example",
		"FOLIO_BATCH_MAX_ITEMS":         "32",
		"FOLIO_EMBED":                   "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "azure", cfg.AI.Provider)
	assert.Equal(t, "https://res.openai.azure.com", cfg.AI.Host)
	assert.Equal(t, "gpt-4o", cfg.AI.AnalystModel)
	assert.Equal(t, "aoai", cfg.AI.APIKey)
	assert.Equal(t, ConverterDocIntel, cfg.Converter.Type)
	assert.Equal(t, "di-key", cfg.Converter.APIKey)
	assert.Equal(t, IndexAzure, cfg.Index.Type)
	assert.Equal(t, "docs", cfg.Index.Azure.IndexName)
	assert.Equal(t, "secret", cfg.Server.JWTSecret)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 32, cfg.Ingestion.BatchMaxItems)
	assert.True(t, cfg.Ingestion.Embed)
	assert.NoError(t, cfg.ValidateAI())
	assert.NoError(t, cfg.ValidateConverter())
	assert.NoError(t, cfg.ValidateIndex())
}

func TestEnvIgnoresBadNumbers(t *testing.T) {
	cfg, err := load("", env(map[string]string{"FOLIO_MAX_ID_LENGTH": "many"}))
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Ingestion.MaxIDLength)
}

func TestValidateReportsMissingSettings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		validate func(*Config) error
		setting  string
	}{
		{"docintel endpoint", func(c *Config) { c.Converter.Type = ConverterDocIntel }, (*Config).ValidateConverter, "DOC_INTEL_ENDPOINT"},
		{"azure index name", func(c *Config) {
			c.Index.Type = IndexAzure
			c.Index.Azure.Endpoint = "https://x"
			c.Index.Azure.APIKey = "k"
		}, (*Config).ValidateIndex, "AZURE_SEARCH_INDEX_NAME"},
		{"mongo uri", func(c *Config) { c.Index.Type = IndexMongo }, (*Config).ValidateIndex, "MONGODB_URI"},
		{"postgres url", func(c *Config) { c.Index.Type = IndexPostgres }, (*Config).ValidateIndex, "DATABASE_URL"},
		{"gemini key", func(c *Config) { c.AI.Provider = "gemini" }, (*Config).ValidateAI, "GEMINI_API_KEY"},
		{"azure deployment", func(c *Config) {
			c.AI.Provider = "azure"
			c.AI.AnalystModel = ""
			c.AI.APIKey = "k"
		}, (*Config).ValidateAI, "AZURE_OPENAI_DEPLOYMENT_NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := tt.validate(cfg)
			require.ErrorIs(t, err, ErrMissingSetting)
			assert.Contains(t, err.Error(), tt.setting)
		})
	}
}

func TestValidateUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Index.Type = "solr"
	assert.ErrorIs(t, cfg.ValidateIndex(), ErrUnknownBackend)

	cfg = Default()
	cfg.Ingestion.SectionOverlap = cfg.Ingestion.SectionTokens
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSetting)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.yaml")
	cfg := Default()
	cfg.Index.Type = IndexMongo
	cfg.Index.Mongo.URI = "mongodb://localhost"
	require.NoError(t, Save(path, cfg))

	loaded, err := load(path, env(nil))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FOLIO_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FOLIO_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("FOLIO_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}
