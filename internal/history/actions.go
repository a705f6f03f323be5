package history

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/common"
)

// HistoryAction prints recent listing fetches and renders from the run ledger.
func HistoryAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	database, err := common.OpenLedger(cfg)
	if err != nil {
		return err
	}
	if database == nil {
		return fmt.Errorf("run ledger disabled: db_path is empty")
	}
	defer database.Close()

	limit := c.Int("limit")
	listings, err := database.ListListings(limit)
	if err != nil {
		return fmt.Errorf("failed to list listings: %w", err)
	}
	renders, err := database.ListRenders(limit)
	if err != nil {
		return fmt.Errorf("failed to list renders: %w", err)
	}

	if len(listings) == 0 && len(renders) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-6s %-15s %-7s %-8s %-38s %s\n", "ID", "Fetched", "Photos", "Locales", "Run", "URL")
	fmt.Println(strings.Repeat("-", 120))
	for _, l := range listings {
		fmt.Printf("%-6d %-15s %-7d %-8s %-38s %s\n",
			l.ListingID,
			humanize.Time(l.FetchedAt),
			l.PhotoCount,
			strings.Join(l.Locales, ","),
			l.RunID,
			l.URL,
		)
	}

	fmt.Println()
	fmt.Printf("%-6s %-15s %-6s %-14s %-20s %s\n", "ID", "Created", "Kind", "Status", "Post Folder", "Descriptor")
	fmt.Println(strings.Repeat("-", 120))
	for _, r := range renders {
		fmt.Printf("%-6d %-15s %-6s %-14s %-20s %s\n",
			r.RenderID,
			humanize.Time(r.CreatedAt),
			r.Kind,
			r.Status,
			r.PostFolder,
			r.Descriptor,
		)
	}

	fmt.Printf("\nTotal: %s listings, %s renders\n", humanize.Comma(int64(len(listings))), humanize.Comma(int64(len(renders))))
	return nil
}
