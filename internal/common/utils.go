package common

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/models"
	"github.com/dtnitsch/adbuilder/pkg/db"
)

// Flags shared by every command.
var Flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   models.DefaultConfigFile,
		Usage:   "path to the YAML config file",
	},
	&cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "only log errors",
	},
}

// NewLogger returns the JSON stderr logger used by all commands.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func LoadConfig(c *cli.Context) (*models.Config, error) {
	return models.LoadConfig(c.String("config"))
}

// OpenLedger opens the run ledger, or returns nil when db_path is empty.
func OpenLedger(cfg *models.Config) (*db.DB, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

var markdownLink = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// SanitizeURL strips whitespace and copy-paste debris such as markdown link
// syntax, quotes and angle brackets.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)
	if m := markdownLink.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}
	cleaned = strings.TrimRight(cleaned, `,;"'>)]}`)
	cleaned = strings.TrimLeft(cleaned, `"'<([`)
	return strings.TrimSpace(cleaned)
}

// ValidateURL checks that rawURL is an absolute http(s) URL with a path.
func ValidateURL(rawURL string) error {
	if strings.ContainsAny(rawURL, " \t") {
		return fmt.Errorf("url %q contains whitespace", rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must be http or https", rawURL)
	}
	if u.Host == "" || strings.ContainsAny(u.Host, "{}[]<>\"'") {
		return fmt.Errorf("url %q has no valid host", rawURL)
	}
	return nil
}

// ReadURLs parses a newline-delimited URL list. Blank lines and lines starting
// with '#' are ignored. Any invalid line fails the whole list.
func ReadURLs(data []byte) ([]string, error) {
	var urls []string
	var invalid []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cleaned := SanitizeURL(line)
		if err := ValidateURL(cleaned); err != nil {
			invalid = append(invalid, line)
			continue
		}
		urls = append(urls, cleaned)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid urls: %s", strings.Join(invalid, ", "))
	}
	return urls, nil
}

// ReadURLsFile reads a URL list from path.
func ReadURLsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read urls file: %w", err)
	}
	return ReadURLs(data)
}
