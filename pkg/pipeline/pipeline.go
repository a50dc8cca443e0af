// Package pipeline turns a page in a tab into a rendered citation:
// classification, extraction alongside an archive capture, then formatting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/citation"
	"github.com/dtnitsch/enquote/pkg/classifier"
	"github.com/dtnitsch/enquote/pkg/db"
	"github.com/dtnitsch/enquote/pkg/extractors"
	"github.com/dtnitsch/enquote/pkg/language"
	"github.com/dtnitsch/enquote/pkg/metrics"
)

var (
	// ErrNoMatch means no pattern and no structured data fit the page.
	ErrNoMatch = errors.New("cannot extract a citation from this page")
	// ErrUnexpected wraps any other extraction failure.
	ErrUnexpected = errors.New("unexpected extraction failure")
)

// Archiver captures a page in an archiving service.
type Archiver interface {
	Archive(ctx context.Context, sourceTabID int, pageURL string) (models.ArchiveResult, error)
}

// Preferences is the persisted user preference store.
type Preferences interface {
	Language() string
}

// Recorder keeps the citation history.
type Recorder interface {
	InsertCitation(c db.Citation) (int64, error)
	RecordArchive(pageURL, archiveURL, archiveDate string) error
}

type Config struct {
	Classifier  *classifier.Classifier
	Extractors  extractors.Registry
	Archiver    Archiver           // nil disables archiving
	Detector    *language.Detector // nil disables language guessing
	Preferences Preferences
	Recorder    Recorder
	Policies    map[models.SourceKind]citation.PassagePolicy
	Logger      *slog.Logger
}

type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Pipeline {
	if cfg.Classifier == nil {
		cfg.Classifier = classifier.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

// Request is one user-triggered extraction.
type Request struct {
	TabID     int
	URL       string
	Selection string // clipboard or selected text
	Language  string // explicit override, validated
}

type Result struct {
	Match    models.SourceMatch
	Kind     models.SourceKind // KindArticle when the fallback was used
	Metadata *models.Metadata
	Archive  models.ArchiveResult
	Language string
	Template citation.Template
	Citation string
}

// Classify reports what kind of source pageURL is.
func (p *Pipeline) Classify(pageURL string) models.SourceMatch {
	return p.cfg.Classifier.Classify(classifier.CleanURL(pageURL))
}

// Cite runs the full extraction for req. Errors wrap ErrNoMatch or
// ErrUnexpected, except an invalid explicit language.
func (p *Pipeline) Cite(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	pageURL := classifier.CleanURL(req.URL)
	match := p.cfg.Classifier.Classify(pageURL)
	logger := p.logger.With("url", pageURL, "kind", match.Kind, "tab_id", req.TabID)

	res := &Result{Match: match, Kind: match.Kind}
	var err error
	if match.Kind == models.KindNone {
		res.Kind = models.KindArticle
		res.Metadata, err = p.extract(ctx, res.Kind, req.TabID, pageURL, nil)
		if errors.Is(err, extractors.ErrNoStructuredData) {
			p.observe(res.Kind, "no_match", start)
			logger.Info("no extractor matched page")
			return nil, fmt.Errorf("%s: %w", pageURL, ErrNoMatch)
		}
		if err != nil {
			return nil, p.unexpected(res.Kind, start, logger, err)
		}
		res.Archive = p.archive(ctx, req.TabID, pageURL, logger)
	} else {
		res.Metadata, res.Archive, err = p.extractWithArchive(ctx, req.TabID, pageURL, match)
		if err != nil {
			return nil, p.unexpected(res.Kind, start, logger, err)
		}
	}

	res.Language, err = p.language(req, res.Metadata)
	if err != nil {
		p.observe(res.Kind, "error", start)
		return nil, err
	}

	opts := citation.Options{
		Language:  res.Language,
		Kind:      res.Kind,
		Selection: req.Selection,
		Policy:    p.cfg.Policies[res.Kind],
	}
	res.Template = citation.Build(res.Metadata, res.Archive, opts)
	res.Citation = res.Template.String()

	p.record(pageURL, res, logger)
	p.observe(res.Kind, "success", start)
	logger.Info("citation produced",
		"archived", !res.Archive.IsEmpty(),
		"language", res.Language,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// extractWithArchive runs the archive capture concurrently with extraction.
// A failed extraction cancels the capture, which still closes its tab.
func (p *Pipeline) extractWithArchive(ctx context.Context, tabID int, pageURL string, match models.SourceMatch) (*models.Metadata, models.ArchiveResult, error) {
	archiveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	archived := make(chan models.ArchiveResult, 1)
	go func() {
		archived <- p.archive(archiveCtx, tabID, pageURL, p.logger.With("url", pageURL, "tab_id", tabID))
	}()

	md, err := p.extract(ctx, match.Kind, tabID, pageURL, match.Captures)
	if err != nil {
		cancel()
		<-archived
		return nil, models.EmptyArchive, err
	}
	return md, <-archived, nil
}

func (p *Pipeline) extract(ctx context.Context, kind models.SourceKind, tabID int, pageURL string, captures []string) (*models.Metadata, error) {
	ex, ok := p.cfg.Extractors[kind]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for %s", kind)
	}
	md, err := ex.Extract(ctx, extractors.Request{TabID: tabID, URL: pageURL, Captures: captures})
	if err != nil {
		return nil, err
	}
	if md.URL == "" {
		md.URL = pageURL
	}
	return md, nil
}

// archive never fails the citation: errors degrade to EmptyArchive.
func (p *Pipeline) archive(ctx context.Context, tabID int, pageURL string, logger *slog.Logger) models.ArchiveResult {
	if p.cfg.Archiver == nil {
		return models.EmptyArchive
	}
	r, err := p.cfg.Archiver.Archive(ctx, tabID, pageURL)
	if err != nil {
		logger.Warn("archive capture failed", "error", err)
		return models.EmptyArchive
	}
	return r
}

func (p *Pipeline) language(req Request, md *models.Metadata) (string, error) {
	var preference string
	if p.cfg.Preferences != nil {
		preference = p.cfg.Preferences.Language()
	}
	sample := md.Passage
	if sample == "" {
		sample = req.Selection
	}
	if sample == "" {
		sample = md.Title
	}
	return p.cfg.Detector.Resolve(req.Language, preference, sample)
}

func (p *Pipeline) record(pageURL string, res *Result, logger *slog.Logger) {
	if p.cfg.Recorder == nil {
		return
	}
	if p.cfg.Archiver != nil {
		if err := p.cfg.Recorder.RecordArchive(pageURL, res.Archive.ArchiveURL, res.Archive.ArchiveDate); err != nil {
			logger.Warn("failed to record archive capture", "error", err)
		}
	}
	_, err := p.cfg.Recorder.InsertCitation(db.Citation{
		URL:         pageURL,
		Kind:        string(res.Kind),
		Language:    res.Language,
		Title:       res.Metadata.Title,
		Authors:     res.Metadata.Authors,
		ArchiveURL:  res.Archive.ArchiveURL,
		ArchiveDate: res.Archive.ArchiveDate,
		Text:        res.Citation,
	})
	if err != nil {
		logger.Warn("failed to record citation", "error", err)
	}
}

func (p *Pipeline) unexpected(kind models.SourceKind, start time.Time, logger *slog.Logger, err error) error {
	p.observe(kind, "error", start)
	logger.Error("extraction failed", "error", err)
	return fmt.Errorf("%w: %w", ErrUnexpected, err)
}

func (p *Pipeline) observe(kind models.SourceKind, status string, start time.Time) {
	metrics.ExtractionsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.ExtractionLatency.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
