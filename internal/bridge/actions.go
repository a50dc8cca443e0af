package bridge

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtnitsch/enquote/internal/common"
	"github.com/dtnitsch/enquote/pkg/archive"
	bridgepkg "github.com/dtnitsch/enquote/pkg/bridge"
	"github.com/urfave/cli/v2"
)

// ServeAction runs the archive coordination server until interrupted.
// Waits are resolved by navigation events posted by the browser.
func ServeAction(c *cli.Context) error {
	logger := common.NewLogger(c)
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.BridgeAddr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	handler := archive.NewHandler(archive.HandlerConfig{
		Base:   cfg.ArchiveBase,
		Policy: archive.RetryPolicy{MaxAttempts: cfg.Archive.MaxAttempts, Interval: cfg.Archive.Interval},
		Logger: logger,
	})

	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridgepkg.NewServer(handler, logger).ListenAndServe(ctx, addr); err != nil {
		logger.Error("bridge stopped", "error", err)
		return cli.Exit(err.Error(), common.ExitUnexpected)
	}
	logger.Info("bridge stopped")
	return nil
}
