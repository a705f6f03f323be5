package crawl

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/common"
	"github.com/dtnitsch/adbuilder/pkg/crawler"
	"github.com/dtnitsch/adbuilder/pkg/fetcher"
	"github.com/dtnitsch/adbuilder/pkg/workspace"
)

// CrawlAction downloads a single listing: crawl <listing_url>.
func CrawlAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("You must enter the listing url", 1)
	}
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	listingURL := common.SanitizeURL(c.Args().First())
	if err := common.ValidateURL(listingURL); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	f := fetcher.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent)
	cr := crawler.New(f, workspace.NewManager(cfg.OutputRoot, time.Now()), cfg.Selectors, logger)

	ledger, err := common.OpenLedger(cfg)
	if err != nil {
		logger.Error("run ledger unavailable", "error", err)
	}
	if ledger != nil {
		defer ledger.Close()
		cr.SetLedger(ledger, uuid.New().String())
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	dir, err := cr.Fetch(ctx, listingURL)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to fetch %s: %v", listingURL, err), 1)
	}
	fmt.Println(dir)
	return nil
}
