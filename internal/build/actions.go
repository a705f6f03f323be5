package build

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/common"
	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/orchestrator"
)

// BuildAction runs a batch: adbuilder <urls_file> [_ <index_file>].
func BuildAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("You must enter the urls file", 1)
	}
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	indexFile := cfg.IndexFile
	if c.NArg() > 2 {
		indexFile = c.Args().Get(2)
	}

	urls, err := common.ReadURLsFile(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	index, err := models.LoadIndex(indexFile)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	opts := []orchestrator.Option{}
	ledger, err := common.OpenLedger(cfg)
	if err != nil {
		logger.Error("run ledger unavailable", "error", err)
	}
	if ledger != nil {
		defer ledger.Close()
		logger.Info("recording run", "db", ledger.Path())
		opts = append(opts, orchestrator.WithLedger(ledger))
	}

	o, err := orchestrator.New(cfg, logger, opts...)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	if err := o.Run(ctx, urls, index); err != nil {
		logger.Error("batch failed", "run_id", o.RunID(), "error", err)
		return cli.Exit(fmt.Sprintf("batch %s failed: %v", o.RunID(), err), 1)
	}
	fmt.Printf("Batch %s complete: %d listings, %d post folders\n", o.RunID(), len(urls), len(index))
	return nil
}
