// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads folio settings from a YAML file, an optional .env
// file and the process environment, in that order of increasing precedence.
//
// A missing config file is not an error; every setting has a default or is
// checked by the per-backend validators when the backend is selected.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend type names.
const (
	ConverterDocIntel = "docintel"
	ConverterDocconv  = "docconv"

	IndexAzure    = "azure"
	IndexBadger   = "badger"
	IndexMongo    = "mongo"
	IndexPostgres = "postgres"
)

// AIConfig selects the language-model and embedding service.
type AIConfig struct {
	Provider       string  `yaml:"provider"`
	Host           string  `yaml:"host"`
	EmbeddingHost  string  `yaml:"embedding_host,omitempty"`
	APIKey         string  `yaml:"api_key,omitempty"`
	APIVersion     string  `yaml:"api_version"`
	AnalystModel   string  `yaml:"analyst_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

// ConverterConfig selects the document conversion service.
type ConverterConfig struct {
	Type        string `yaml:"type"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	APIKey      string `yaml:"api_key,omitempty"`
	APIVersion  string `yaml:"api_version,omitempty"`
	PollSecs    int    `yaml:"poll_secs"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Readability bool   `yaml:"readability"`
}

// AzureSearchConfig addresses an Azure AI Search index.
type AzureSearchConfig struct {
	Endpoint    string `yaml:"endpoint"`
	IndexName   string `yaml:"index_name"`
	APIKey      string `yaml:"api_key,omitempty"`
	APIVersion  string `yaml:"api_version"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// BadgerConfig locates the embedded store.
type BadgerConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// MongoConfig addresses a MongoDB collection.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// PostgresConfig addresses a pgvector-enabled table.
type PostgresConfig struct {
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

// IndexConfig selects the search index backend.
type IndexConfig struct {
	Type     string            `yaml:"type"`
	Azure    AzureSearchConfig `yaml:"azure"`
	Badger   BadgerConfig      `yaml:"badger"`
	Mongo    MongoConfig       `yaml:"mongo"`
	Postgres PostgresConfig    `yaml:"postgres"`
}

// IngestionConfig holds page, batch and analysis limits.
type IngestionConfig struct {
	MaxIDLength     int  `yaml:"max_id_length"`
	BatchMaxTokens  int  `yaml:"batch_max_tokens"`
	BatchMaxItems   int  `yaml:"batch_max_items"`
	SingleShotLimit int  `yaml:"single_shot_limit"`
	SectionTokens   int  `yaml:"section_tokens"`
	SectionOverlap  int  `yaml:"section_overlap"`
	MapConcurrency  int  `yaml:"map_concurrency"`
	Embed           bool `yaml:"embed"`
	EmbedPoolSize   int  `yaml:"embed_pool_size"`
	RetryAttempts   int  `yaml:"retry_attempts"`
	Archive         bool `yaml:"archive"`
}

// IndexingConfig holds search-index submission limits.
type IndexingConfig struct {
	MaxDocs          int `yaml:"max_docs"`
	MaxBytes         int `yaml:"max_bytes"`
	VectorDimensions int `yaml:"vector_dimensions"`
	Concurrency      int `yaml:"concurrency"`
}

// S3Config holds credentials for s3:// locators.
type S3Config struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
}

// BlobConfig configures document fetchers.
type BlobConfig struct {
	HTTPTimeoutSecs int      `yaml:"http_timeout_secs"`
	MaxBytes        int64    `yaml:"max_bytes"`
	S3              S3Config `yaml:"s3"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	JWTSecret      string   `yaml:"jwt_secret,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// Config is the root application configuration.
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	Converter ConverterConfig `yaml:"converter"`
	Index     IndexConfig     `yaml:"index"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Blob      BlobConfig      `yaml:"blob"`
	Server    ServerConfig    `yaml:"server"`
}

// Load reads path (if it exists), applies environment overrides, then fills
// defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	applyEnv(cfg, lookup)
	applyDefaults(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file or environment is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func applyDefaults(cfg *Config) {
	a := &cfg.AI
	if a.Provider == "" {
		a.Provider = "openai"
	}
	if a.Host == "" && a.Provider == "openai" {
		a.Host = "http://localhost:11434/v1"
	}
	if a.APIVersion == "" {
		a.APIVersion = "2024-10-21"
	}
	// Azure deployments are named per resource and have no default.
	switch a.Provider {
	case "gemini":
		if a.AnalystModel == "" {
			a.AnalystModel = "gemini-1.5-flash"
		}
		if a.EmbeddingModel == "" {
			a.EmbeddingModel = "text-embedding-004"
		}
	case "openai":
		if a.AnalystModel == "" {
			a.AnalystModel = "gpt-4o-mini"
		}
		if a.EmbeddingModel == "" {
			a.EmbeddingModel = "text-embedding-3-small"
		}
	}
	if a.Temperature == 0 {
		a.Temperature = 0.3
	}
	if a.MaxTokens == 0 {
		a.MaxTokens = 4000
	}

	c := &cfg.Converter
	if c.Type == "" {
		if c.Endpoint != "" {
			c.Type = ConverterDocIntel
		} else {
			c.Type = ConverterDocconv
		}
	}
	if c.APIVersion == "" {
		c.APIVersion = "2024-11-30"
	}
	if c.PollSecs == 0 {
		c.PollSecs = 2
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 300
	}

	ix := &cfg.Index
	if ix.Type == "" {
		if ix.Azure.Endpoint != "" {
			ix.Type = IndexAzure
		} else {
			ix.Type = IndexBadger
		}
	}
	if ix.Azure.APIVersion == "" {
		ix.Azure.APIVersion = "2024-07-01"
	}
	if ix.Azure.TimeoutSecs == 0 {
		ix.Azure.TimeoutSecs = 60
	}
	if ix.Badger.Path == "" {
		ix.Badger.Path = "folio.db"
	}
	if ix.Mongo.Database == "" {
		ix.Mongo.Database = "folio"
	}
	if ix.Mongo.Collection == "" {
		ix.Mongo.Collection = "documents"
	}
	if ix.Postgres.Table == "" {
		ix.Postgres.Table = "documents"
	}

	in := &cfg.Ingestion
	setDefault(&in.MaxIDLength, 1024)
	setDefault(&in.BatchMaxTokens, 7500)
	setDefault(&in.BatchMaxItems, 2000)
	setDefault(&in.SingleShotLimit, 100000)
	setDefault(&in.SectionTokens, 50000)
	setDefault(&in.SectionOverlap, 500)
	setDefault(&in.MapConcurrency, 4)
	setDefault(&in.EmbedPoolSize, 4)
	setDefault(&in.RetryAttempts, 3)

	x := &cfg.Indexing
	setDefault(&x.MaxDocs, 1000)
	setDefault(&x.MaxBytes, 16*1024*1024)
	setDefault(&x.VectorDimensions, 1536)
	setDefault(&x.Concurrency, 4)

	b := &cfg.Blob
	setDefault(&b.HTTPTimeoutSecs, 60)
	if b.MaxBytes == 0 {
		b.MaxBytes = 500 * 1024 * 1024
	}
	if b.S3.Region == "" {
		b.S3.Region = "us-east-1"
	}

	s := &cfg.Server
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{"*"}
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = 500 * 1024 * 1024
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
