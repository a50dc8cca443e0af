package archive

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/enquote/models"
)

// Coordinator runs one archive capture: it opens the submission in a
// background tab next to the source tab, waits for the permanent link, and
// closes the tab it opened.
type Coordinator struct {
	base    string
	browser Browser
	handler *Handler
	logger  *slog.Logger
}

func NewCoordinator(base string, browser Browser, handler *Handler, logger *slog.Logger) *Coordinator {
	if base == "" {
		base = DefaultBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{base: base, browser: browser, handler: handler, logger: logger}
}

// Archive captures pageURL. A capture that times out yields EmptyArchive and
// no error; errors mean the auxiliary tab could not be opened or a wait was
// already pending on it.
func (c *Coordinator) Archive(ctx context.Context, sourceTabID int, pageURL string) (models.ArchiveResult, error) {
	source, err := c.browser.Tab(ctx, sourceTabID)
	if err != nil {
		return models.EmptyArchive, fmt.Errorf("failed to look up source tab %d: %w", sourceTabID, err)
	}

	submit := SubmitURL(c.base, pageURL)
	tab, err := c.browser.OpenTab(ctx, submit, source.Index+1, false)
	if err != nil {
		return models.EmptyArchive, fmt.Errorf("failed to open archive tab: %w", err)
	}
	c.logger.Debug("archive submitted", "url", pageURL, "archive_tab", tab.ID)

	defer func() {
		// the tab is closed even when ctx was cancelled
		if err := c.browser.CloseTab(context.WithoutCancel(ctx), tab.ID); err != nil {
			c.logger.Warn("failed to close archive tab", "archive_tab", tab.ID, "error", err)
		}
	}()

	return c.handler.Wait(ctx, tab.ID)
}
