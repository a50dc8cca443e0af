package cite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dtnitsch/enquote/internal/common"
	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/archive"
	"github.com/dtnitsch/enquote/pkg/browser"
	"github.com/dtnitsch/enquote/pkg/caching"
	"github.com/dtnitsch/enquote/pkg/db"
	"github.com/dtnitsch/enquote/pkg/extractors"
	"github.com/dtnitsch/enquote/pkg/fetcher"
	"github.com/dtnitsch/enquote/pkg/pipeline"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Output is what `cite --format json|yaml` prints.
type Output struct {
	URL         string           `json:"url" yaml:"url"`
	Kind        string           `json:"kind" yaml:"kind"`
	Language    string           `json:"language" yaml:"language"`
	ArchiveURL  string           `json:"archive_url,omitempty" yaml:"archive_url,omitempty"`
	ArchiveDate string           `json:"archive_date,omitempty" yaml:"archive_date,omitempty"`
	Metadata    *models.Metadata `json:"metadata" yaml:"metadata"`
	Citation    string           `json:"citation" yaml:"citation"`
}

// CiteAction loads a page into a tab, extracts it and prints the citation.
func CiteAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: enquote cite [options] <url>", common.ExitUserError)
	}
	pageURL, err := common.ValidateURL(c.Args().First())
	if err != nil {
		return err
	}
	format := c.String("format")
	if format != "text" && format != "json" && format != "yaml" {
		return cli.Exit(fmt.Sprintf("unknown format %q (want text, json or yaml)", format), common.ExitUserError)
	}

	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("archive-attempts") {
		cfg.Archive.MaxAttempts = c.Int("archive-attempts")
	}
	if c.IsSet("db") {
		cfg.DBPath = c.String("db")
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	f := fetcher.NewFetcher(cfg.UserAgent, c.Duration("timeout"))
	tabs := browser.New(f, logger)

	var tab models.Tab
	if path := c.String("html-file"); path != "" {
		html, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read %s: %v", path, err), common.ExitUserError)
		}
		tab, err = tabs.LoadHTML(pageURL, string(html))
		if err != nil {
			return common.ExitError(err)
		}
	} else {
		tab, err = tabs.Load(ctx, pageURL)
		if err != nil {
			logger.Error("failed to load page", "url", pageURL, "error", err)
			return cli.Exit(fmt.Sprintf("failed to load %s: %v", pageURL, err), common.ExitUnexpected)
		}
	}

	p, closeFn, err := newPipeline(c, cfg, tabs, f, logger)
	if err != nil {
		return common.ExitError(err)
	}
	defer closeFn()

	res, err := p.Cite(ctx, pipeline.Request{
		TabID:     tab.ID,
		URL:       tab.URL,
		Selection: c.String("selection"),
		Language:  c.String("lang"),
	})
	if err != nil {
		return common.ExitError(err)
	}

	return printResult(res, format)
}

// newPipeline wires the collaborators of one extraction. The returned func
// releases the history database.
func newPipeline(c *cli.Context, cfg *models.Config, tabs *browser.Tabs, f *fetcher.Fetcher, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	cacheDir, err := common.CacheDir(cfg)
	if err != nil {
		return nil, nil, err
	}
	cache, err := caching.NewCache(cacheDir, cfg.CatalogCacheTTL)
	if err != nil {
		logger.Warn("catalog cache disabled", "error", err)
		cache = nil
	}

	policies, err := common.PassagePolicies(cfg)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), common.ExitUserError)
	}
	detector, err := common.Detector(cfg)
	if err != nil {
		return nil, nil, err
	}

	var archiver pipeline.Archiver
	if !c.Bool("no-archive") {
		handler := archive.NewHandler(archive.HandlerConfig{
			Base:      cfg.ArchiveBase,
			Policy:    archive.RetryPolicy{MaxAttempts: cfg.Archive.MaxAttempts, Interval: cfg.Archive.Interval},
			Browser:   tabs,
			Inspector: tabs,
			Logger:    logger,
		})
		archiver = archive.NewCoordinator(cfg.ArchiveBase, tabs, handler, logger)
	}

	closeFn := func() {}
	var recorder pipeline.Recorder
	if !c.Bool("no-history") {
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			recorder = database
			closeFn = func() { _ = database.Close() }
		}
	}

	p := pipeline.New(pipeline.Config{
		Extractors: extractors.NewRegistry(extractors.Deps{
			Inspector:     tabs,
			Fetcher:       f,
			Cache:         cache,
			CatalogBase:   cfg.CatalogBase,
			MaxFrameDepth: cfg.MaxFrameDepth,
			Logger:        logger,
		}),
		Archiver:    archiver,
		Detector:    detector,
		Preferences: models.PreferenceFile{Path: c.String("config")},
		Recorder:    recorder,
		Policies:    policies,
		Logger:      logger,
	})
	return p, closeFn, nil
}

func printResult(res *pipeline.Result, format string) error {
	out := Output{
		URL:         res.Metadata.URL,
		Kind:        string(res.Kind),
		Language:    res.Language,
		ArchiveURL:  res.Archive.ArchiveURL,
		ArchiveDate: res.Archive.ArchiveDate,
		Metadata:    res.Metadata,
		Citation:    res.Citation,
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Print(string(data))
	default:
		fmt.Println(res.Citation)
	}
	return nil
}

// DefaultTimeout bounds each HTTP request made while citing.
const DefaultTimeout = 30 * time.Second
