package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/build"
	"github.com/dtnitsch/adbuilder/internal/common"
	"github.com/dtnitsch/adbuilder/internal/crawl"
	"github.com/dtnitsch/adbuilder/internal/history"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "adbuilder",
		Usage:     "build classified-ad images and videos from car listings",
		ArgsUsage: "<urls_file> [_ <index_file>]",
		Flags:     common.Flags,
		Action:    build.BuildAction,
		Commands: []*cli.Command{
			{
				Name:      "crawl",
				Usage:     "download one listing's photos and details",
				ArgsUsage: "<listing_url>",
				Action:    crawl.CrawlAction,
			},
			{
				Name:  "history",
				Usage: "show recent listing fetches and renders",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "maximum rows per table",
					},
				},
				Action: history.HistoryAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
