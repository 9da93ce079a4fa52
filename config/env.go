package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment files without overriding variables that are
// already set. Missing files are ignored. With no arguments it reads ./.env.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// applyEnv overlays environment variables. Variable names follow the Azure
// deployment conventions, with FOLIO_* names for everything else.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("ignoring non-integer environment value", "key", key, "value", v)
			return
		}
		*dst = n
	}
	flag := func(dst *bool, key string) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("ignoring non-boolean environment value", "key", key, "value", v)
			return
		}
		*dst = b
	}

	a := &cfg.AI
	str(&a.Provider, "FOLIO_AI_PROVIDER")
	if v, ok := lookup("AZURE_OPENAI_ENDPOINT"); ok && v != "" {
		a.Host = v
		if a.Provider == "" {
			a.Provider = "azure"
		}
	}
	if a.Provider == "" {
		if _, ok := lookup("GEMINI_API_KEY"); ok {
			a.Provider = "gemini"
		}
	}
	switch a.Provider {
	case "azure":
		str(&a.APIKey, "AZURE_OPENAI_API_KEY")
	case "gemini":
		str(&a.APIKey, "GEMINI_API_KEY")
	default:
		str(&a.APIKey, "OPENAI_API_KEY")
	}
	str(&a.Host, "FOLIO_AI_HOST")
	str(&a.EmbeddingHost, "FOLIO_AI_EMBEDDING_HOST")
	str(&a.AnalystModel, "AZURE_OPENAI_DEPLOYMENT_NAME", "FOLIO_AI_ANALYST_MODEL")
	str(&a.EmbeddingModel, "AZURE_OPENAI_EMBEDDING_DEPLOYMENT", "FOLIO_AI_EMBEDDING_MODEL")
	str(&a.APIVersion, "AZURE_OPENAI_API_VERSION")

	c := &cfg.Converter
	str(&c.Type, "FOLIO_CONVERTER")
	str(&c.Endpoint, "DOC_INTEL_ENDPOINT")
	str(&c.APIKey, "DOCUMENT_INTELLIGENCE_KEY")

	ix := &cfg.Index
	str(&ix.Type, "FOLIO_INDEX")
	str(&ix.Azure.Endpoint, "AZURE_SEARCH_SERVICE_ENDPOINT")
	str(&ix.Azure.IndexName, "AZURE_SEARCH_INDEX_NAME")
	str(&ix.Azure.APIKey, "AZURE_SEARCH_API_KEY")
	str(&ix.Badger.Path, "FOLIO_BADGER_PATH")
	str(&ix.Mongo.URI, "MONGODB_URI")
	str(&ix.Postgres.DatabaseURL, "DATABASE_URL")

	in := &cfg.Ingestion
	num(&in.MaxIDLength, "FOLIO_MAX_ID_LENGTH")
	num(&in.BatchMaxTokens, "FOLIO_BATCH_MAX_TOKENS")
	num(&in.BatchMaxItems, "FOLIO_BATCH_MAX_ITEMS")
	num(&in.SingleShotLimit, "FOLIO_SINGLE_SHOT_LIMIT")
	flag(&in.Embed, "FOLIO_EMBED")
	flag(&in.Archive, "FOLIO_ARCHIVE")

	num(&cfg.Indexing.VectorDimensions, "FOLIO_VECTOR_DIMENSIONS")

	s3 := &cfg.Blob.S3
	str(&s3.Region, "AWS_REGION")
	str(&s3.AccessKey, "AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY")
	str(&s3.SecretKey, "AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY")
	str(&s3.Endpoint, "AWS_ENDPOINT_URL_S3")

	s := &cfg.Server
	if v, ok := lookup("PORT"); ok && v != "" {
		s.Addr = ":" + v
	}
	str(&s.Addr, "FOLIO_ADDR")
	str(&s.JWTSecret, "JWT_SECRET")
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		s.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.AllowedOrigins = append(s.AllowedOrigins, o)
			}
		}
	}
}
