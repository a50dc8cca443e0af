package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dtnitsch/enquote/internal/common"
	dbpkg "github.com/dtnitsch/enquote/pkg/db"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func openDatabase(c *cli.Context) (*dbpkg.DB, error) {
	path := c.String("db")
	if path == "" {
		cfg, err := common.LoadConfig(c)
		if err != nil {
			return nil, err
		}
		path = cfg.DBPath
	}
	database, err := dbpkg.Open(path)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to open database: %v", err), common.ExitUnexpected)
	}
	return database, nil
}

// HistoryAction lists past citations, newest first.
func HistoryAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	citations, err := database.ListCitations(dbpkg.HistoryFilter{
		Kind:       c.String("kind"),
		URLPattern: c.String("url"),
		TodayOnly:  c.Bool("today"),
		Limit:      c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list citations: %w", err)
	}

	return WriteHistory(os.Stdout, citations, c.String("format"))
}

// WriteHistory renders citations as a table, JSON or YAML.
func WriteHistory(w io.Writer, citations []dbpkg.Citation, format string) error {
	switch format {
	case "json":
		if citations == nil {
			citations = []dbpkg.Citation{}
		}
		data, err := json.MarshalIndent(citations, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal citations: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		data, err := yaml.Marshal(citations)
		if err != nil {
			return fmt.Errorf("failed to marshal citations: %w", err)
		}
		fmt.Fprint(w, string(data))
		return nil
	case "text", "":
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q (want text, json or yaml)", format), common.ExitUserError)
	}

	if len(citations) == 0 {
		fmt.Fprintln(w, "No citations found")
		return nil
	}

	fmt.Fprintf(w, "%-6s %-20s %-20s %-6s %-12s %s\n",
		"ID", "Created", "Kind", "Lang", "Archived", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, ct := range citations {
		archived := ct.ArchiveDate
		if archived == "" {
			archived = "-"
		}
		fmt.Fprintf(w, "%-6d %-20s %-20s %-6s %-12s %s\n",
			ct.ID,
			ct.CreatedAt.Format("2006-01-02 15:04:05"),
			ct.Kind,
			ct.Language,
			archived,
			ct.URL,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d citations\n", len(citations))
	fmt.Fprintf(w, "\nTip: Use 'enquote history show <id>' to print a citation\n")
	return nil
}

// ShowAction prints one stored citation, or the latest when no id is given.
func ShowAction(c *cli.Context) error {
	database, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer database.Close()

	id, err := GetCitationIDOrLatest(c, database)
	if err != nil {
		return err
	}

	ct, err := database.GetCitation(id)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitUserError)
	}
	return WriteCitation(os.Stdout, database, ct)
}

// WriteCitation prints ct. A citation made without an archive link is
// followed by the latest successful capture of its URL, if any.
func WriteCitation(w io.Writer, database *dbpkg.DB, ct *dbpkg.Citation) error {
	fmt.Fprintln(w, ct.Text)
	if ct.ArchiveURL != "" {
		return nil
	}

	urlID, err := database.GetURLID(ct.URL)
	if errors.Is(err, dbpkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	capture, err := database.LastCapture(urlID)
	if errors.Is(err, dbpkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nLatest capture: %s (%s)\n", capture.ArchiveURL, capture.ArchiveDate)
	return nil
}
