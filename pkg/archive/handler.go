package archive

import (
	"context"
	"log/slog"
	"time"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/inspector"
	"github.com/dtnitsch/enquote/pkg/metrics"
)

const captureTimeSelector = "#HEADER time"

// Browser is the tab control the coordinator needs.
type Browser interface {
	Tab(ctx context.Context, tabID int) (models.Tab, error)
	OpenTab(ctx context.Context, url string, index int, active bool) (models.Tab, error)
	TabURL(ctx context.Context, tabID int) (string, error)
	CloseTab(ctx context.Context, tabID int) error
}

type HandlerConfig struct {
	Base      string
	Policy    RetryPolicy
	Browser   Browser             // nil: wait for Navigated events only
	Inspector inspector.Inspector // reads the capture date; nil: today
	Logger    *slog.Logger
	Now       func() time.Time
}

// Handler answers "wait for archive URL" requests. With a Browser it polls
// the tab's URL; without one it waits for Navigated events. Either way the
// wait is bounded by the retry policy and resolves to EmptyArchive when the
// budget runs out.
type Handler struct {
	permalink *Permalink
	policy    RetryPolicy
	pending   *Pending
	browser   Browser
	inspector inspector.Inspector
	logger    *slog.Logger
	now       func() time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Base == "" {
		cfg.Base = DefaultBase
	}
	if cfg.Policy.Interval <= 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	pending := NewPending(cfg.Policy.Budget())
	pending.now = cfg.Now
	return &Handler{
		permalink: NewPermalink(cfg.Base),
		policy:    cfg.Policy,
		pending:   pending,
		browser:   cfg.Browser,
		inspector: cfg.Inspector,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Pending exposes the request table.
func (h *Handler) Pending() *Pending {
	return h.pending
}

// Wait blocks until tabID reaches a permanent link, the policy is exhausted,
// or ctx ends. Only a duplicate registration is an error; timeouts and
// cancellation resolve to EmptyArchive.
func (h *Handler) Wait(ctx context.Context, tabID int) (models.ArchiveResult, error) {
	id, result, err := h.pending.Register(tabID)
	if err != nil {
		metrics.ArchiveWaitsTotal.WithLabelValues("rejected").Inc()
		return models.EmptyArchive, err
	}
	defer h.pending.Remove(tabID, id)

	start := h.now()
	logger := h.logger.With("tab_id", tabID, "request_id", id)
	logger.Debug("waiting for archive permalink", "max_attempts", h.policy.attempts(), "interval", h.policy.Interval)

	var (
		r       models.ArchiveResult
		outcome string
	)
	if h.browser != nil {
		r, outcome = h.poll(ctx, tabID, result, logger)
	} else {
		r, outcome = h.await(ctx, result)
	}

	metrics.ArchiveWaitsTotal.WithLabelValues(outcome).Inc()
	metrics.ArchiveWaitSeconds.Observe(h.now().Sub(start).Seconds())
	switch outcome {
	case "captured":
		logger.Info("archive captured", "archive_url", r.ArchiveURL, "archive_date", r.ArchiveDate)
	case "timeout":
		logger.Warn("archive wait timed out", "budget", h.policy.Budget())
	default:
		logger.Warn("archive wait cancelled", "error", ctx.Err())
	}
	return r, nil
}

// poll checks the tab URL once per attempt, then sleeps. A Navigated event
// arriving meanwhile also ends the wait.
func (h *Handler) poll(ctx context.Context, tabID int, result <-chan models.ArchiveResult, logger *slog.Logger) (models.ArchiveResult, string) {
	ticker := time.NewTicker(h.policy.Interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= h.policy.attempts(); attempt++ {
		current, err := h.browser.TabURL(ctx, tabID)
		if err != nil {
			logger.Debug("tab url unavailable", "attempt", attempt, "error", err)
		} else if link, ok := h.permalink.Match(current); ok {
			return models.ArchiveResult{ArchiveURL: link, ArchiveDate: h.captureDate(ctx, tabID)}, "captured"
		}

		select {
		case r := <-result:
			return r, "captured"
		case <-ctx.Done():
			return models.EmptyArchive, "cancelled"
		case <-ticker.C:
		}
	}
	return models.EmptyArchive, "timeout"
}

func (h *Handler) await(ctx context.Context, result <-chan models.ArchiveResult) (models.ArchiveResult, string) {
	timer := time.NewTimer(h.policy.Budget())
	defer timer.Stop()

	select {
	case r := <-result:
		return r, "captured"
	case <-timer.C:
		return models.EmptyArchive, "timeout"
	case <-ctx.Done():
		return models.EmptyArchive, "cancelled"
	}
}

// Navigated reports that tabID committed or finished loading url. A
// permanent link resolves the tab's pending wait; date, when empty, is read
// from the page or defaults to today. A link for a tab nobody waits on yet
// is parked for the policy budget and handed to the next wait on that tab.
// It reports whether a wait was resolved.
func (h *Handler) Navigated(ctx context.Context, tabID int, url, date string) bool {
	link, ok := h.permalink.Match(url)
	if !ok {
		return false
	}
	if date == "" {
		date = h.captureDate(ctx, tabID)
	} else {
		date = captureDate(date, h.now())
	}
	resolved := h.pending.Offer(tabID, models.ArchiveResult{ArchiveURL: link, ArchiveDate: date})
	if !resolved {
		h.logger.Debug("archive permalink parked", "tab_id", tabID, "archive_url", link)
	}
	return resolved
}

func (h *Handler) captureDate(ctx context.Context, tabID int) string {
	var datetime string
	if h.inspector != nil {
		v, err := inspector.Optional(ctx, h.inspector, tabID, inspector.Attr(captureTimeSelector, "datetime"))
		if err != nil {
			h.logger.Debug("capture date unavailable", "tab_id", tabID, "error", err)
		}
		datetime = v
	}
	return captureDate(datetime, h.now())
}
