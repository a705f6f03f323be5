package crawl

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/adbuilder/internal/common"
)

func TestCrawlActionExitCodes(t *testing.T) {
	config := filepath.Join(t.TempDir(), "config.yaml")

	tests := []struct {
		name string
		args []string
	}{
		{name: "no listing url", args: nil},
		{name: "invalid listing url", args: []string{"--config", config, "--quiet", "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Name:           "crawl",
				Flags:          common.Flags,
				Action:         CrawlAction,
				Writer:         io.Discard,
				ErrWriter:      io.Discard,
				ExitErrHandler: func(*cli.Context, error) {},
			}
			err := app.Run(append([]string{"crawl"}, tt.args...))
			var exit cli.ExitCoder
			if !errors.As(err, &exit) {
				t.Fatalf("expected cli.ExitCoder, got %v", err)
			}
			if exit.ExitCode() != 1 {
				t.Errorf("ExitCode() = %d, want 1", exit.ExitCode())
			}
		})
	}
}
