package db

import (
	"fmt"

	"github.com/dtnitsch/enquote/internal/common"
	dbpkg "github.com/dtnitsch/enquote/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetCitationIDOrLatest returns the citation ID from args, or the latest citation if not provided
func GetCitationIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 {
		latest, err := database.ListCitations(dbpkg.HistoryFilter{Limit: 1})
		if err != nil {
			return 0, fmt.Errorf("failed to get latest citation: %w", err)
		}
		if len(latest) == 0 {
			return 0, cli.Exit("no citations found. Run 'enquote cite <url>' first", common.ExitUserError)
		}
		return latest[0].ID, nil
	}

	var id int64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return 0, cli.Exit(fmt.Sprintf("invalid citation ID: %s", c.Args().First()), common.ExitUserError)
	}
	return id, nil
}
