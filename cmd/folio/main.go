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


package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/folio"
	"github.com/poiesic/folio/config"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/indexing"
	"github.com/poiesic/folio/reembed"
	"github.com/poiesic/folio/server"
	"github.com/poiesic/folio/tokens"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "folio",
		Usage: "Convert, paginate, analyse and index documents for search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   "folio.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment files to load before reading the environment",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Convert a document into page records with a document summary",
				ArgsUsage: "<path | http(s)://... | s3://bucket/key>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source-url",
						Usage: "Locator used for document ids (defaults to the argument)",
					},
					&cli.StringFlag{
						Name:  "content-type",
						Usage: "Media type of the document (detected when empty)",
					},
					&cli.BoolFlag{
						Name:  "archive",
						Usage: "Store page records in the embedded page archive",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Attach page embeddings",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the result to a file instead of stdout",
					},
				},
			},
			{
				Name:      "index",
				Usage:     "Index a JSON array of search documents",
				ArgsUsage: "<file.json | ->",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute vectors for every archived page",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Pages per embedding call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N pages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "retries",
						Usage: "Attempts per embedding call (default from config)",
					},
				},
			},
			{
				Name:      "docid",
				Usage:     "Print the document id for a locator",
				ArgsUsage: "<locator>",
				Action:    docIDCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "page",
						Usage: "Print the id of this page instead of the base id",
					},
				},
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	tokens.UseOfflineBPE()
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func serveCommand(c *cli.Context) error {
	cfg := loadedConfig(c)
	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	services := folio.NewServices(cfg)
	defer services.Close()

	// Report problems up front; requests still get a configuration error.
	if err := cfg.Validate(); err != nil {
		slog.Warn("configuration incomplete", "err", err)
	}

	return server.New(services, cfg).Run(ctx)
}

func ingestCommand(c *cli.Context) error {
	locator := c.Args().First()
	if locator == "" {
		return fmt.Errorf("a document locator is required")
	}
	ctx := c.Context
	cfg := loadedConfig(c)
	if c.Bool("archive") {
		cfg.Ingestion.Archive = true
	}
	if c.Bool("embed") {
		cfg.Ingestion.Embed = true
	}

	services := folio.NewServices(cfg)
	defer services.Close()

	obj, err := services.Fetcher(ctx).Fetch(ctx, locator)
	if err != nil {
		return fmt.Errorf("failed to fetch document: %w", err)
	}
	contentType := c.String("content-type")
	if contentType == "" {
		contentType = obj.ContentType
	}

	pipeline, err := services.Pipeline(ctx)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	sourceURL := c.String("source-url")
	if sourceURL == "" {
		sourceURL = locator
	}
	result, err := pipeline.Ingest(ctx, obj.Data, contentType, sourceURL)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	out := c.App.Writer
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return writeJSON(out, result)
}

func indexCommand(c *cli.Context) error {
	source := c.Args().First()
	if source == "" {
		return fmt.Errorf("a documents file is required (use - for stdin)")
	}
	var in io.Reader = os.Stdin
	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var docs []core.SearchDocument
	if err := json.NewDecoder(in).Decode(&docs); err != nil {
		return fmt.Errorf("expected a JSON array of documents: %w", err)
	}
	if len(docs) == 0 {
		return indexing.ErrNoDocuments
	}

	ctx := c.Context
	cfg := loadedConfig(c)
	services := folio.NewServices(cfg)
	defer services.Close()

	progress := indexing.NewProgressTracker(c.App.ErrWriter, len(docs), c.Int("report-interval"))
	indexer, err := services.NewIndexer(ctx, indexing.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	resp, err := indexer.Index(ctx, docs)
	var verr *indexing.ValidationError
	if errors.As(err, &verr) {
		for _, msg := range verr.Errors {
			fmt.Fprintln(c.App.ErrWriter, msg)
		}
		return err
	}
	if err != nil {
		return err
	}
	if err := writeJSON(c.App.Writer, resp); err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%d of %d documents failed to index", resp.Failed, len(docs))
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := c.Context
	services := folio.NewServices(loadedConfig(c))
	defer services.Close()

	rcfg := reembed.DefaultConfig()
	rcfg.BatchSize = c.Int("batch-size")
	rcfg.ReportInterval = c.Int("report-interval")
	rcfg.MaxRetries = c.Int("retries")

	reembedder, err := services.Reembedder(ctx, rcfg, c.App.ErrWriter)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	stats, err := reembedder.Run(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%d of %d pages re-embedded\n", stats.Updated, stats.Pages)
	return err
}

func docIDCommand(c *cli.Context) error {
	locator := c.Args().First()
	if locator == "" {
		return fmt.Errorf("a locator is required")
	}
	maxLen := loadedConfig(c).Ingestion.MaxIDLength
	id := core.BaseDocumentID(locator, maxLen)
	if page := c.Int("page"); page > 0 {
		id = core.ChunkID(id, page, maxLen)
	}
	_, err := fmt.Fprintln(c.App.Writer, id)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
