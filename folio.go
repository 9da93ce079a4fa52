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


// Package folio wires configured services into ingestion and indexing
// pipelines. Services are constructed on first use and reused; construction
// failures are returned to the caller and retried on the next call.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/ai/gemini"
	"github.com/poiesic/folio/ai/openai"
	"github.com/poiesic/folio/analysis"
	"github.com/poiesic/folio/blob"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/convert"
	"github.com/poiesic/folio/indexing"
	"github.com/poiesic/folio/ingestion"
	"github.com/poiesic/folio/reembed"
	"github.com/poiesic/folio/storage"
	"github.com/poiesic/folio/storage/azure"
	"github.com/poiesic/folio/storage/badger"
	"github.com/poiesic/folio/storage/mongo"
	"github.com/poiesic/folio/storage/postgres"
)

// Services owns the long-lived handles of a folio process: the AI provider,
// converter, analyzer, ingestion pipeline, index client, indexer, page
// archive and blob fetcher. Each is constructed from the configuration on
// first use and shared afterwards. A construction that fails is not cached,
// so fixing the configuration and calling again succeeds.
//
// Services is safe for concurrent use. Close releases everything it built;
// handles supplied through options are left open.
type Services struct {
	cfg *config.Config

	mu        sync.Mutex
	provider  ai.AIProvider
	converter convert.Converter
	analyzer  *analysis.Analyzer
	pipeline  *ingestion.Pipeline
	index     storage.IndexClient
	indexer   *indexing.Indexer
	archive   storage.PageArchive
	backend   *badger.Backend
	fetcher   blob.Fetcher

	// injected services are not closed by Close
	injected map[string]bool

	logger *slog.Logger
}

// Option configures Services.
type Option func(*Services)

// WithAIProvider uses provider instead of constructing one from config.
func WithAIProvider(provider ai.AIProvider) Option {
	return func(s *Services) {
		s.provider = provider
		s.injected["provider"] = true
	}
}

// WithConverter uses c instead of constructing one from config.
func WithConverter(c convert.Converter) Option {
	return func(s *Services) {
		s.converter = c
	}
}

// WithIndexClient uses client instead of constructing one from config.
func WithIndexClient(client storage.IndexClient) Option {
	return func(s *Services) {
		s.index = client
		s.injected["index"] = true
	}
}

// WithFetcher uses f to resolve document locators.
func WithFetcher(f blob.Fetcher) Option {
	return func(s *Services) {
		s.fetcher = f
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Services) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServices creates a service container. Nothing is connected until first use.
func NewServices(cfg *config.Config, opts ...Option) *Services {
	s := &Services{
		cfg:      cfg,
		injected: map[string]bool{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the services were built from.
func (s *Services) Config() *config.Config {
	return s.cfg
}

// Pipeline returns the shared ingestion pipeline.
func (s *Services) Pipeline(ctx context.Context) (*ingestion.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline != nil {
		return s.pipeline, nil
	}
	p, err := s.newPipeline(ctx)
	if err != nil {
		return nil, err
	}
	s.pipeline = p
	return p, nil
}

// NewPipeline builds an ingestion pipeline with extra options, sharing the
// converter, analyzer and stores. The caller releases it.
func (s *Services) NewPipeline(ctx context.Context, extra ...ingestion.Option) (*ingestion.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newPipeline(ctx, extra...)
}

func (s *Services) newPipeline(ctx context.Context, extra ...ingestion.Option) (*ingestion.Pipeline, error) {
	in := s.cfg.Ingestion

	converter, err := s.converterLocked()
	if err != nil {
		return nil, err
	}
	analyzer, err := s.analyzerLocked(ctx)
	if err != nil {
		return nil, err
	}

	opts := []ingestion.Option{
		ingestion.WithConverter(converter),
		ingestion.WithMaxIDLength(in.MaxIDLength),
		ingestion.WithBatchLimits(in.BatchMaxTokens, in.BatchMaxItems),
		ingestion.WithPoolSize(in.EmbedPoolSize),
		ingestion.WithRetry(in.RetryAttempts, 500*time.Millisecond),
	}
	if in.Embed {
		provider, err := s.providerLocked(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingestion.WithEmbedder(provider.Embedder()))
	}
	if in.Archive {
		archive, err := s.archiveLocked()
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingestion.WithArchive(archive))
	}
	return ingestion.NewPipeline(analyzer, append(opts, extra...)...)
}

// Indexer returns the shared indexer.
func (s *Services) Indexer(ctx context.Context) (*indexing.Indexer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexer != nil {
		return s.indexer, nil
	}
	ix, err := s.newIndexer(ctx)
	if err != nil {
		return nil, err
	}
	s.indexer = ix
	return ix, nil
}

// NewIndexer builds an indexer with extra options sharing the index client.
func (s *Services) NewIndexer(ctx context.Context, extra ...indexing.Option) (*indexing.Indexer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newIndexer(ctx, extra...)
}

func (s *Services) newIndexer(ctx context.Context, extra ...indexing.Option) (*indexing.Indexer, error) {
	client, err := s.indexLocked(ctx)
	if err != nil {
		return nil, err
	}
	x := s.cfg.Indexing
	opts := []indexing.Option{
		indexing.WithBatchLimits(x.MaxDocs, x.MaxBytes),
		indexing.WithVectorDimensions(x.VectorDimensions),
		indexing.WithConcurrency(x.Concurrency),
	}
	return indexing.NewIndexer(client, append(opts, extra...)...)
}

// Fetcher returns the locator resolver for local, web and s3 documents.
// S3 is unavailable when its configuration cannot be loaded.
func (s *Services) Fetcher(ctx context.Context) blob.Fetcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetcher != nil {
		return s.fetcher
	}
	b := s.cfg.Blob
	var s3 blob.Fetcher
	if f, err := blob.NewS3(ctx, blob.S3Config{
		Region:    b.S3.Region,
		AccessKey: b.S3.AccessKey,
		SecretKey: b.S3.SecretKey,
		Endpoint:  b.S3.Endpoint,
	}); err != nil {
		s.logger.Warn("s3 fetcher unavailable", "err", err)
	} else {
		s3 = f
	}
	s.fetcher = blob.NewRouter(blob.File{}, blob.NewHTTP(time.Duration(b.HTTPTimeoutSecs)*time.Second, b.MaxBytes), s3)
	return s.fetcher
}

// Archive returns the page archive, opening the embedded store if needed.
func (s *Services) Archive() (storage.PageArchive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.archiveLocked()
}

// Embedder returns the embedder of the configured AI provider.
func (s *Services) Embedder(ctx context.Context) (ai.Embedder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, err := s.providerLocked(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Embedder(), nil
}

// Reembedder returns a reembedder over the page archive. A zero MaxRetries
// in rcfg falls back to the ingestion retry setting.
func (s *Services) Reembedder(ctx context.Context, rcfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	embedder, err := s.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	archive, err := s.Archive()
	if err != nil {
		return nil, err
	}
	if rcfg == nil {
		rcfg = reembed.DefaultConfig()
		rcfg.MaxRetries = s.cfg.Ingestion.RetryAttempts
	} else if rcfg.MaxRetries == 0 {
		rcfg.MaxRetries = s.cfg.Ingestion.RetryAttempts
	}
	return reembed.NewReembedder(archive, embedder, rcfg, progress)
}

// Close releases everything the services constructed.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.pipeline != nil {
		s.pipeline.Release()
		s.pipeline = nil
	}
	if s.analyzer != nil {
		s.analyzer.Release()
		s.analyzer = nil
	}
	if s.provider != nil && !s.injected["provider"] {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if s.index != nil && !s.injected["index"] {
		if err := s.index.Close(); err != nil {
			s.logger.Error("error closing index client", "err", err)
			errs = append(errs, err)
		}
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Error("error closing page archive", "err", err)
			errs = append(errs, err)
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
	}
	s.indexer = nil
	return errors.Join(errs...)
}

func (s *Services) converterLocked() (convert.Converter, error) {
	if s.converter != nil {
		return s.converter, nil
	}
	if err := s.cfg.ValidateConverter(); err != nil {
		return nil, err
	}
	c := s.cfg.Converter
	switch c.Type {
	case config.ConverterDocIntel:
		di, err := convert.NewDocumentIntelligence(convert.DocIntelConfig{
			Endpoint:     c.Endpoint,
			APIKey:       c.APIKey,
			APIVersion:   c.APIVersion,
			PollInterval: time.Duration(c.PollSecs) * time.Second,
			PollTimeout:  time.Duration(c.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		s.converter = convert.NewRouter(di)
	default:
		s.converter = convert.NewRouter(convert.NewDocconv(c.Readability))
	}
	return s.converter, nil
}

// analyzerLocked builds the analyzer. An unusable AI configuration leaves
// the analyzer without an analyst, so ingestion still returns pages; the
// provider is constructed again on each later analysis until it succeeds.
func (s *Services) analyzerLocked(ctx context.Context) (*analysis.Analyzer, error) {
	if s.analyzer != nil {
		return s.analyzer, nil
	}
	var analyst ai.Analyst
	if provider, err := s.providerLocked(ctx); err != nil {
		s.logger.Warn("document analysis unavailable", "err", err)
	} else {
		analyst = provider.Analyst()
	}

	in := s.cfg.Ingestion
	a, err := analysis.NewAnalyzer(analyst,
		analysis.WithAnalystResolver(s.resolveAnalyst),
		analysis.WithSingleShotLimit(in.SingleShotLimit),
		analysis.WithSectionSize(in.SectionTokens, in.SectionOverlap),
		analysis.WithMapConcurrency(in.MapConcurrency),
	)
	if err != nil {
		return nil, err
	}
	s.analyzer = a
	return a, nil
}

// resolveAnalyst retries provider construction for an analyzer built without one.
func (s *Services) resolveAnalyst(ctx context.Context) (ai.Analyst, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, err := s.providerLocked(ctx)
	if err != nil {
		return nil, err
	}
	return provider.Analyst(), nil
}

func (s *Services) providerLocked(ctx context.Context) (ai.AIProvider, error) {
	if s.provider != nil {
		return s.provider, nil
	}
	if err := s.cfg.ValidateAI(); err != nil {
		return nil, err
	}
	aiCfg := AIConfig(s.cfg.AI)

	var (
		provider ai.AIProvider
		err      error
	)
	switch aiCfg.Provider {
	case ai.ProviderGemini:
		provider, err = gemini.NewProvider(ctx, aiCfg)
	default:
		provider, err = openai.NewProvider(aiCfg)
	}
	if err != nil {
		return nil, err
	}
	s.provider = provider
	return provider, nil
}

// AIConfig converts application settings to the provider configuration.
func AIConfig(c config.AIConfig) *ai.Config {
	embeddingHost := c.EmbeddingHost
	if embeddingHost == "" {
		embeddingHost = c.Host
	}
	return ai.NewConfig(
		ai.WithProvider(ai.ProviderKind(c.Provider)),
		ai.WithAnalystHost(c.Host),
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithAPIKey(c.APIKey),
		ai.WithAPIVersion(c.APIVersion),
		ai.WithAnalystModel(c.AnalystModel),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithTemperature(c.Temperature),
		ai.WithMaxTokens(c.MaxTokens),
	)
}

func (s *Services) indexLocked(ctx context.Context) (storage.IndexClient, error) {
	if s.index != nil {
		return s.index, nil
	}
	if err := s.cfg.ValidateIndex(); err != nil {
		return nil, err
	}
	ix := s.cfg.Index

	var (
		client storage.IndexClient
		err    error
	)
	switch ix.Type {
	case config.IndexAzure:
		client, err = azure.NewClient(azure.Config{
			Endpoint:   ix.Azure.Endpoint,
			IndexName:  ix.Azure.IndexName,
			APIKey:     ix.Azure.APIKey,
			APIVersion: ix.Azure.APIVersion,
			Timeout:    time.Duration(ix.Azure.TimeoutSecs) * time.Second,
		})
	case config.IndexMongo:
		client, err = mongo.NewClient(ctx, mongo.Config{
			URI:        ix.Mongo.URI,
			Database:   ix.Mongo.Database,
			Collection: ix.Mongo.Collection,
		})
	case config.IndexPostgres:
		client, err = postgres.NewClient(ctx, postgres.Config{
			DatabaseURL: ix.Postgres.DatabaseURL,
			Table:       ix.Postgres.Table,
			Dimensions:  s.cfg.Indexing.VectorDimensions,
		})
	case config.IndexBadger:
		var backend *badger.Backend
		backend, err = s.backendLocked()
		if err == nil {
			client, err = badger.NewIndexStore(backend)
		}
	default:
		err = fmt.Errorf("%w: index type %q", config.ErrUnknownBackend, ix.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s index: %w", ix.Type, err)
	}
	s.index = client
	return client, nil
}

func (s *Services) archiveLocked() (storage.PageArchive, error) {
	if s.archive != nil {
		return s.archive, nil
	}
	backend, err := s.backendLocked()
	if err != nil {
		return nil, err
	}
	archive, err := badger.NewPageArchive(backend)
	if err != nil {
		return nil, err
	}
	s.archive = archive
	return archive, nil
}

func (s *Services) backendLocked() (*badger.Backend, error) {
	if s.backend != nil {
		return s.backend, nil
	}
	b := s.cfg.Index.Badger
	backend, err := badger.OpenBackend(b.Path, b.InMemory)
	if err != nil {
		return nil, err
	}
	s.backend = backend
	return backend, nil
}
