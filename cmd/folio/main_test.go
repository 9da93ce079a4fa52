package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/folio/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// writeConfig writes a config that keeps everything local: an embedded
// index in a temp dir and an AI provider with no credentials.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	data := "ai:\n  provider: gemini\nindex:\n  type: badger\n  badger:\n    path: " + filepath.Join(dir, "db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := newApp()
	var stdout, stderr bytes.Buffer
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"folio", "--log-level", "error"}, args...))
	return stdout.String(), stderr.String(), err
}

func findCommand(t *testing.T, name string) *cli.Command {
	t.Helper()
	for _, cmd := range newApp().Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func TestCommandFlags(t *testing.T) {
	t.Run("ingest flags", func(t *testing.T) {
		cmd := findCommand(t, "ingest")
		names := map[string]bool{}
		for _, f := range cmd.Flags {
			names[f.Names()[0]] = true
		}
		for _, want := range []string{"source-url", "content-type", "archive", "embed", "output"} {
			assert.True(t, names[want], want)
		}
	})

	t.Run("reembed flags", func(t *testing.T) {
		cmd := findCommand(t, "reembed")
		names := map[string]bool{}
		for _, f := range cmd.Flags {
			names[f.Names()[0]] = true
		}
		for _, want := range []string{"batch-size", "report-interval", "retries"} {
			assert.True(t, names[want], want)
		}
	})

	t.Run("report-interval has default value of 100", func(t *testing.T) {
		cmd := findCommand(t, "index")
		var reportFlag *cli.IntFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "report-interval" {
				reportFlag = f
				break
			}
		}
		require.NotNil(t, reportFlag)
		assert.Equal(t, 100, reportFlag.Value)
	})
}

func TestInvalidLogLevel(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"folio", "--log-level", "verbose", "docid", "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestDocIDCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, _, err := run(t, "--config", cfg, "docid", "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, core.BaseDocumentID("https://example.com/a.pdf", 1024)+"\n", out)

	out, _, err = run(t, "--config", cfg, "docid", "--page", "3", "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "_chunk_3"))

	_, _, err = run(t, "--config", cfg, "docid")
	assert.Error(t, err)
}

func TestIngestCommand(t *testing.T) {
	cfg := writeConfig(t)
	doc := filepath.Join(t.TempDir(), "report.md")
	require.NoError(t, os.WriteFile(doc, []byte("First page.\fSecond page."), 0o600))

	out, _, err := run(t, "--config", cfg, "ingest", "--source-url", "https://example.com/report.pdf", doc)
	require.NoError(t, err)

	var result core.IngestionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Pages, 2)
	assert.Equal(t, core.BaseDocumentID("https://example.com/report.pdf", 1024), result.DocumentSummary.BaseDocumentID)
	assert.Equal(t, "Second page.", result.Pages[1].MarkdownContent)
	assert.Equal(t, core.AnalysisFailed, result.DocumentSummary.Status, "no credentials configured")

	_, _, err = run(t, "--config", cfg, "ingest", filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestIndexCommand(t *testing.T) {
	cfg := writeConfig(t)
	docs := filepath.Join(t.TempDir(), "docs.json")
	require.NoError(t, os.WriteFile(docs, []byte(`[{"id":"a","published_date":"01-02-2024"},{"id":"b"}]`), 0o600))

	out, stderr, err := run(t, "--config", cfg, "index", "--report-interval", "1", docs)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Indexed: 2/2")

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, float64(2), resp["indexed"])

	invalid := filepath.Join(t.TempDir(), "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`[{"title":"no id"}]`), 0o600))
	_, stderr, err = run(t, "--config", cfg, "index", invalid)
	require.Error(t, err)
	assert.Contains(t, stderr, "missing required 'id'")
}

func TestReembedCommandNeedsCredentials(t *testing.T) {
	cfg := writeConfig(t)

	_, _, err := run(t, "--config", cfg, "reembed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
