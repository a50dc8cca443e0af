package main

import (
	"fmt"
	"os"

	"github.com/dtnitsch/enquote/internal/bridge"
	"github.com/dtnitsch/enquote/internal/cite"
	"github.com/dtnitsch/enquote/internal/classify"
	"github.com/dtnitsch/enquote/internal/db"
	"github.com/dtnitsch/enquote/internal/preference"
	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "enquote",
		Usage: "Turn the page you are reading into a dictionary quotation template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   models.DefaultConfigFile,
				Usage:   "Path to the YAML config file (also stores the language preference)",
				EnvVars: []string{"ENQUOTE_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "cite",
				Usage:     "Extract a citation from a page and archive it",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "html-file",
						Usage: "Read the page from a saved HTML file instead of fetching it",
					},
					&cli.StringFlag{
						Name:    "selection",
						Aliases: []string{"s"},
						Usage:   "Selected or clipboard text to quote",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Language code for the template (overrides the stored preference)",
					},
					&cli.BoolFlag{
						Name:  "no-archive",
						Usage: "Skip the archive capture",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record the citation in the history database",
					},
					&cli.IntFlag{
						Name:  "archive-attempts",
						Usage: "Maximum polls while waiting for the archive permalink",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: cite.DefaultTimeout,
						Usage: "Timeout for each HTTP request",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "History database path",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text, json, yaml",
					},
				},
				Action: cite.CiteAction,
			},
			{
				Name:      "classify",
				Usage:     "Show which kind of source each URL is, without fetching",
				ArgsUsage: "<url> [url...]",
				Action:    classify.ClassifyAction,
			},
			{
				Name:  "history",
				Usage: "List recorded citations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: text, json, yaml",
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only citations of this source kind",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Only citations whose URL contains this text",
					},
					&cli.BoolFlag{
						Name:  "today",
						Usage: "Only citations made today",
					},
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "Maximum number of citations (0 for all)",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "History database path",
					},
				},
				Action: db.HistoryAction,
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "Print a recorded citation (latest by default)",
						ArgsUsage: "[id]",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "db",
								Usage: "History database path",
							},
						},
						Action: db.ShowAction,
					},
				},
			},
			{
				Name:  "bridge",
				Usage: "Serve the archive coordination API for a browser extension",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (default from config)",
					},
				},
				Action: bridge.ServeAction,
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick reference",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
			{
				Name:   "language",
				Usage:  "Show the stored citation language",
				Action: preference.LanguageAction,
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Store the citation language (\"auto\" to detect per passage)",
						ArgsUsage: "<code|auto>",
						Action:    preference.SetLanguageAction,
					},
					{
						Name:      "detect",
						Usage:     "Guess the language of some text",
						ArgsUsage: "<text>",
						Action:    preference.DetectAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
