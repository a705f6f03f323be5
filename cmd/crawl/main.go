package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/common"
	"github.com/dtnitsch/adbuilder/internal/crawl"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:      "crawl",
		Usage:     "download one listing's photos and details",
		ArgsUsage: "<listing_url>",
		Flags:     common.Flags,
		Action:    crawl.CrawlAction,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
