package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"BlogCrawler/internal/classifier"
	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
	"BlogCrawler/internal/identity"
	"BlogCrawler/internal/metrics"
	"BlogCrawler/internal/persistence"
	"BlogCrawler/internal/ports"
)

// ErrUnknownSource is returned by Run when the source filter matches nothing.
var ErrUnknownSource = errors.New("unknown source")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources    []domain.SourceConfig
	Feeds      ports.FeedFetcher
	Extractors *extractor.Registry
	// Pages serves unthrottled sources, ThrottledPages the rest. Either may be nil.
	Pages          extractor.PageFetcher
	ThrottledPages extractor.PageFetcher
	Store          ports.ArticleStore
	// StoreErr records why Store could not be opened.
	StoreErr       error
	Classifier     ports.Classifier
	Reporter       ports.Reporter
	Metrics        ports.RunMetrics
	Logger         *slog.Logger
	FlushThreshold int
	Location       *time.Location
	Now            func() time.Time
}

// Pipeline implements the blog ingestion workflow.
type Pipeline struct {
	sources        []domain.SourceConfig
	feeds          ports.FeedFetcher
	extractors     *extractor.Registry
	pages          extractor.PageFetcher
	throttledPages extractor.PageFetcher
	store          ports.ArticleStore
	storeErr       error
	classifier     ports.Classifier
	reporter       ports.Reporter
	metrics        ports.RunMetrics
	logger         *slog.Logger
	flushThreshold int
	location       *time.Location
	now            func() time.Time
}

// RunOptions narrows a run to one source and/or disables writes.
type RunOptions struct {
	SourceID string
	DryRun   bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		sources:        deps.Sources,
		feeds:          deps.Feeds,
		extractors:     deps.Extractors,
		pages:          deps.Pages,
		throttledPages: deps.ThrottledPages,
		store:          deps.Store,
		storeErr:       deps.StoreErr,
		classifier:     deps.Classifier,
		reporter:       deps.Reporter,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		flushThreshold: deps.FlushThreshold,
		location:       deps.Location,
		now:            deps.Now,
	}

	if p.extractors == nil {
		p.extractors = extractor.NewRegistry()
	}
	if p.classifier == nil {
		p.classifier = classifier.Noop{}
	}
	// Tags are always re-validated against the vocabulary, whatever backend is injected.
	if _, guarded := p.classifier.(*classifier.Guard); !guarded {
		p.classifier = classifier.NewGuard(p.classifier, nil, 0)
	}
	if p.metrics == nil {
		p.metrics = metrics.Nop{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.flushThreshold <= 0 {
		p.flushThreshold = 498
	}
	if p.location == nil {
		p.location = time.UTC
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	if p.store == nil && p.storeErr == nil {
		p.storeErr = errors.New("no document store configured")
	}

	return p
}

// Run processes the selected sources in order and delivers the report unless dryRun.
// Per-source failures land in the report; the returned error covers an unknown source
// filter and report delivery.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (domain.RunReport, error) {
	sources, err := p.selectSources(opts.SourceID)
	if err != nil {
		return domain.RunReport{}, err
	}

	report := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
		DryRun:    opts.DryRun,
	}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("crawl started", "sources", len(sources), "dry_run", opts.DryRun)

	for _, src := range sources {
		if ctx.Err() != nil {
			logger.Warn("crawl cancelled", "error", ctx.Err())
			break
		}
		report.Results = append(report.Results, p.processSource(ctx, logger.With("source", src.ID), src, opts.DryRun))
	}

	report.FinishedAt = p.now()
	logger.Info("crawl finished",
		"new", report.TotalNew(),
		"failed_entries", report.TotalFailed(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)

	if opts.DryRun || p.reporter == nil {
		return report, nil
	}

	if err := p.reporter.Publish(ctx, FormatReport(report, p.location)); err != nil {
		logger.Error("report delivery failed", "error", err)
		return report, fmt.Errorf("deliver report: %w", err)
	}
	return report, nil
}

// Sources lists the configured sources.
func (p *Pipeline) Sources() []domain.SourceConfig {
	return append([]domain.SourceConfig(nil), p.sources...)
}

func (p *Pipeline) selectSources(id string) ([]domain.SourceConfig, error) {
	if id == "" {
		return p.sources, nil
	}
	for _, src := range p.sources {
		if src.ID == id {
			return []domain.SourceConfig{src}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
}

func (p *Pipeline) storeReady() bool {
	return p.store != nil && p.storeErr == nil
}

func (p *Pipeline) processSource(ctx context.Context, logger *slog.Logger, src domain.SourceConfig, dryRun bool) (res domain.SourceResult) {
	started := time.Now()
	res = domain.SourceResult{SourceID: src.ID, BlogName: src.Name}
	defer func() {
		p.metrics.ObserveSource(src.ID, res.Success, time.Since(started))
		logState(logger, "source_done", "success", res.Success, "new", res.New, "skipped", res.Skipped, "failed", len(res.Failed))
	}()

	fail := func(format string, args ...any) domain.SourceResult {
		res.Success = false
		res.Error = fmt.Sprintf(format, args...)
		logger.Error("source failed", "reason", res.Error)
		return res
	}

	ext, err := p.extractors.Resolve(src.Strategy)
	if err != nil {
		return fail("%v", err)
	}
	if !dryRun && !p.storeReady() {
		return fail("store initialization failed: %v", p.storeErr)
	}

	logState(logger, "fetching_source", "feed", src.FeedURL)
	entries, err := p.feeds.Fetch(ctx, src.FeedURL)
	if err != nil {
		return fail("%v", err)
	}

	logState(logger, "processing_entries", "entries", len(entries))
	pages := p.pages
	if src.Throttle {
		pages = p.throttledPages
	}

	var writer *persistence.Writer
	if !dryRun {
		writer = persistence.NewWriter(p.store, p.flushThreshold, p.metrics)
	}

	wouldWrite := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		out := p.processEntry(ctx, logger, src, ext, pages, entry, dryRun)
		switch {
		case out.failure != nil:
			res.Failed = append(res.Failed, *out.failure)
			p.metrics.ObserveEntry(src.ID, metrics.OutcomeFailed)
		case out.skipped:
			res.Skipped++
			p.metrics.ObserveEntry(src.ID, metrics.OutcomeSkipped)
		case out.unit != nil:
			p.metrics.ObserveEntry(src.ID, metrics.OutcomeNew)
			if dryRun {
				wouldWrite++
				continue
			}
			if err := writer.Add(ctx, *out.unit); err != nil {
				if lost, ok := lostUnits(err); ok {
					res.New = writer.Committed()
					res.Failed = append(res.Failed, lost...)
					return fail("commit failed: %v", errors.Unwrap(err))
				}
				res.Failed = append(res.Failed, domain.FailedEntry{Title: entry.Title, URL: entry.Link, Reason: err.Error()})
			}
		}
	}

	if dryRun {
		res.New = wouldWrite
		res.Success = true
		return res
	}

	logState(logger, "flushing", "pending_ops", writer.Pending())
	if err := writer.Flush(ctx); err != nil {
		res.New = writer.Committed()
		lost, _ := lostUnits(err)
		res.Failed = append(res.Failed, lost...)
		return fail("commit failed: %v", errors.Unwrap(err))
	}

	res.New = writer.Committed()
	res.Success = true
	return res
}

// lostUnits converts the units dropped by a failed commit into failed entries.
func lostUnits(err error) ([]domain.FailedEntry, bool) {
	var flushErr *persistence.FlushError
	if !errors.As(err, &flushErr) {
		return nil, false
	}
	out := make([]domain.FailedEntry, 0, len(flushErr.Units))
	for _, u := range flushErr.Units {
		out = append(out, domain.FailedEntry{
			Title:  u.Record.Title,
			URL:    u.Record.LinkURL,
			Reason: fmt.Sprintf("commit failed: %v", flushErr.Err),
		})
	}
	return out, true
}

type entryOutcome struct {
	unit    *persistence.Unit
	skipped bool
	failure *domain.FailedEntry
}

func (p *Pipeline) processEntry(
	ctx context.Context,
	logger *slog.Logger,
	src domain.SourceConfig,
	ext extractor.Extractor,
	pages extractor.PageFetcher,
	entry domain.FeedEntry,
	dryRun bool,
) (out entryOutcome) {
	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)

	failed := func(reason string) entryOutcome {
		logger.Warn("entry failed", "title", title, "url", link, "reason", reason)
		return entryOutcome{failure: &domain.FailedEntry{Title: title, URL: link, Reason: reason}}
	}

	defer func() {
		if r := recover(); r != nil {
			out = failed(fmt.Sprintf("panic: %v", r))
		}
	}()

	if link == "" {
		return failed(domain.ReasonMissingLink)
	}
	id, err := identity.Resolve(link)
	if err != nil {
		return failed(domain.ReasonInvalidLink)
	}

	if p.storeReady() {
		exists, err := p.store.Exists(ctx, id)
		if err != nil {
			return failed(fmt.Sprintf("dedup check failed: %v", err))
		}
		if exists {
			logger.Debug("entry already stored", "id", id)
			return entryOutcome{skipped: true}
		}
	}

	if title == "" {
		return failed(domain.ReasonMissingTitle)
	}

	in := extractor.Input{
		Source: src,
		Entry:  entry,
		Link:   link,
		Pages:  extractor.NewMemo(pages),
	}

	extracted, err := ext.ExtractContent(ctx, in)
	if err != nil {
		logger.Warn("content extraction degraded", "url", link, "error", err)
	}
	body := extractor.StripHTML(extracted.Content)
	if body == "" {
		return failed(domain.ReasonEmptyBody)
	}

	thumbnail, err := ext.ExtractThumbnail(ctx, in)
	if err != nil {
		logger.Warn("thumbnail extraction degraded", "url", link, "error", err)
	}

	classification, err := p.classifier.Classify(ctx, title, body)
	if err != nil {
		return failed(fmt.Sprintf("classification failed: %v", err))
	}

	record := domain.ArticleRecord{
		ID:           id,
		Title:        title,
		LinkURL:      link,
		PublishDate:  entry.PublishedOrDiscovered(),
		Author:       resolveAuthor(src, entry),
		BlogID:       src.ID,
		BlogName:     src.Name,
		Description:  extracted.Description,
		ThumbnailURL: optional(thumbnail),
		IsValid:      classification.IsValid,
		SkillIDs:     nonNil(classification.SkillIDs),
		JobGroupIDs:  nonNil(classification.JobGroupIDs),
	}
	if record.Description == "" {
		record.Description = extractor.NoDescription
	}

	logger.Info("entry extracted",
		"title", title,
		"body_runes", extractor.RuneLen(body),
		"has_description", extracted.Description != "" && extracted.Description != extractor.NoDescription,
		"has_thumbnail", thumbnail != "",
		"author", record.Author,
		"dry_run", dryRun,
	)

	return entryOutcome{unit: &persistence.Unit{
		Record: record,
		Body:   domain.ContentBody{ArticleID: id, Text: body},
	}}
}

// resolveAuthor prefers the feed creator, then the source's author selector over the
// entry HTML (first comma-separated name), then the source name.
func resolveAuthor(src domain.SourceConfig, entry domain.FeedEntry) string {
	if creator := strings.TrimSpace(entry.Creator); creator != "" {
		return creator
	}

	if src.AuthorSelector != "" {
		html := entry.Content
		if html == "" {
			html = entry.ContentEncoded
		}
		if html != "" {
			text := strings.TrimSpace(extractor.Fragment(html).Find(src.AuthorSelector).First().Text())
			if name, _, _ := strings.Cut(text, ","); strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name)
			}
		}
	}

	return src.Name
}

func logState(logger *slog.Logger, state string, args ...any) {
	logger.Debug("source state", append([]any{"state", state}, args...)...)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
