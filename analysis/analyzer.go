package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/folio/ai"
	"github.com/poiesic/folio/core"
	"github.com/poiesic/folio/tokens"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultSingleShotLimit is the token count at which analysis switches to map-reduce.
	DefaultSingleShotLimit = 100000

	// DefaultSectionTokens is the target size of each map-reduce section.
	DefaultSectionTokens = 50000

	// DefaultSectionOverlap is the token overlap between adjacent sections.
	DefaultSectionOverlap = 500

	// DefaultMapConcurrency bounds concurrent section extraction calls.
	DefaultMapConcurrency = 4

	failedSummary        = "Analysis failed"
	failedSectionExtract = "[Summary generation failed]"
)

// ErrAnalystUnavailable is reported when no language-model client could be constructed.
var ErrAnalystUnavailable = errors.New("analysis client unavailable")

// sectionSeparators are tried in order when splitting large documents.
var sectionSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// Analyzer produces DocumentAnalysis values. It is safe for concurrent use.
type Analyzer struct {
	analystMu       sync.Mutex
	analyst         ai.Analyst
	resolve         AnalystResolver
	counter         tokens.Counter
	pool            *ants.Pool
	singleShotLimit int
	sectionTokens   int
	sectionOverlap  int
	logger          *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// AnalystResolver constructs the analyst on demand.
type AnalystResolver func(ctx context.Context) (ai.Analyst, error)

// WithAnalystResolver sets how a missing analyst is obtained. While the
// analyzer has no analyst, every Analyze call tries resolve again; the first
// analyst it returns is kept.
func WithAnalystResolver(resolve AnalystResolver) Option {
	return func(a *Analyzer) error {
		a.resolve = resolve
		return nil
	}
}

// WithTokenCounter sets the counter used to size map-reduce sections.
// Default is tokens.Default().
func WithTokenCounter(counter tokens.Counter) Option {
	return func(a *Analyzer) error {
		if counter != nil {
			a.counter = counter
		}
		return nil
	}
}

// WithSingleShotLimit sets the token count at which analysis switches to map-reduce.
func WithSingleShotLimit(limit int) Option {
	return func(a *Analyzer) error {
		if limit < 1 {
			return fmt.Errorf("single-shot limit must be positive, got %d", limit)
		}
		a.singleShotLimit = limit
		return nil
	}
}

// WithSectionSize sets the map-reduce section size and overlap, in tokens.
func WithSectionSize(size, overlap int) Option {
	return func(a *Analyzer) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("invalid section size %d with overlap %d", size, overlap)
		}
		a.sectionTokens = size
		a.sectionOverlap = overlap
		return nil
	}
}

// WithMapConcurrency sets how many sections are extracted at once.
func WithMapConcurrency(n int) Option {
	return func(a *Analyzer) error {
		if n < 1 {
			n = 1
		}
		if a.pool != nil {
			a.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		a.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnalyzer creates an analyzer. A nil analyst is accepted; analyses then
// report ErrAnalystUnavailable in their status until a resolver set with
// WithAnalystResolver supplies one.
func NewAnalyzer(analyst ai.Analyst, opts ...Option) (*Analyzer, error) {
	pool, err := ants.NewPool(DefaultMapConcurrency)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		analyst:         analyst,
		counter:         tokens.Default(),
		pool:            pool,
		singleShotLimit: DefaultSingleShotLimit,
		sectionTokens:   DefaultSectionTokens,
		sectionOverlap:  DefaultSectionOverlap,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(a); optErr != nil {
			a.Release()
			return nil, optErr
		}
	}
	a.logger = a.logger.With("component", "analyzer")
	return a, nil
}

// Release releases the worker pool. The analyzer should not be used afterwards.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Analyze summarises a document. Page and token totals come from pages.
// The returned analysis always carries a status; it is never nil.
func (a *Analyzer) Analyze(ctx context.Context, baseID, text string, pages []*core.PageRecord) *core.DocumentAnalysis {
	totalTokens := 0
	for _, p := range pages {
		totalTokens += p.TokenCount
	}
	result := &core.DocumentAnalysis{
		BaseDocumentID: baseID,
		TotalPages:     len(pages),
		TotalTokens:    totalTokens,
		KeyTopics:      []string{},
		DocumentType:   core.DocumentTypeUnknown,
		PublishedDate:  core.NoPublishedDate,
	}

	analyst, err := a.currentAnalyst(ctx)
	if err != nil {
		return failed(result, err)
	}

	source := text
	if totalTokens < a.singleShotLimit {
		a.logger.Info("using single-shot analysis", "tokens", totalTokens)
	} else {
		a.logger.Info("using map-reduce summary before analysis", "tokens", totalTokens)
		summary, err := a.mapReduce(ctx, analyst, text, totalTokens)
		if err != nil {
			a.logger.Error("document analysis failed", "err", err)
			return failed(result, err)
		}
		source = summary
	}

	analysis, err := analyst.AnalyzeDocument(ctx, source)
	if err != nil {
		a.logger.Error("structured analysis failed", "err", err)
		summary := failedSummary
		result.Summary = &summary
		result.Status = core.AnalysisFailed
		result.Error = err.Error()
		return result
	}

	summary := Sanitize(analysis.Summary)
	result.Summary = &summary
	if analysis.KeyTopics != nil {
		result.KeyTopics = analysis.KeyTopics
	}
	result.DocumentType = analysis.DocumentType
	result.PublishedDate = analysis.PublishedDate
	result.Status = core.AnalysisSucceeded
	return result
}

// currentAnalyst returns the analyst, resolving it when none is set yet.
func (a *Analyzer) currentAnalyst(ctx context.Context) (ai.Analyst, error) {
	a.analystMu.Lock()
	defer a.analystMu.Unlock()

	if a.analyst != nil {
		return a.analyst, nil
	}
	if a.resolve == nil {
		return nil, ErrAnalystUnavailable
	}
	analyst, err := a.resolve(ctx)
	if err != nil {
		a.logger.Warn("document analysis unavailable", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrAnalystUnavailable, err)
	}
	if analyst == nil {
		return nil, ErrAnalystUnavailable
	}
	a.analyst = analyst
	return analyst, nil
}

func failed(result *core.DocumentAnalysis, err error) *core.DocumentAnalysis {
	result.Summary = nil
	result.Status = core.AnalysisFailed
	result.Error = err.Error()
	return result
}

// mapReduce reduces text to an extractive summary. Sections whose extraction
// fails are kept as placeholders; a failed combine step fails the whole run.
func (a *Analyzer) mapReduce(ctx context.Context, analyst ai.Analyst, text string, totalTokens int) (string, error) {
	sections := []string{text}
	if totalTokens > a.singleShotLimit {
		sections = a.split(text)
		a.logger.Info("split document for map-reduce", "tokens", totalTokens, "sections", len(sections))
	}

	extracts := make([]string, len(sections))
	var wg sync.WaitGroup
	for i, section := range sections {
		label := i + 1
		task := func() {
			defer wg.Done()
			out, err := analyst.ExtractKeyContent(ctx, section)
			if err != nil {
				a.logger.Warn("failed to extract section content", "section", label, "err", err)
				extracts[i] = fmt.Sprintf("Section %d: %s", label, failedSectionExtract)
				return
			}
			extracts[i] = fmt.Sprintf("Section %d: %s", label, strings.TrimSpace(out))
		}

		wg.Add(1)
		if err := a.pool.Submit(task); err != nil {
			// pool closed or overloaded; run inline
			task()
		}
	}
	wg.Wait()

	combined, err := analyst.CombineExtracts(ctx, strings.Join(extracts, "\n\n"))
	if err != nil {
		return "", fmt.Errorf("combine section extracts: %w", err)
	}
	return Sanitize(combined), nil
}

// split cuts text into token-bounded overlapping sections. If the splitter
// fails the whole text is used as a single section.
func (a *Analyzer) split(text string) []string {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(a.sectionTokens),
		textsplitter.WithChunkOverlap(a.sectionOverlap),
		textsplitter.WithSeparators(sectionSeparators),
		textsplitter.WithLenFunc(a.counter.Count),
	)
	sections, err := splitter.SplitText(text)
	if err != nil || len(sections) == 0 {
		a.logger.Warn("section split failed, analysing as one section", "err", err)
		return []string{text}
	}
	return sections
}
