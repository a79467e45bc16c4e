package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pricefeed-cli/internal/circular"
	"github.com/sells-group/pricefeed-cli/internal/extract"
	"github.com/sells-group/pricefeed-cli/internal/fetcher"
	"github.com/sells-group/pricefeed-cli/internal/reconcile"
	"github.com/sells-group/pricefeed-cli/internal/sheet"
	"github.com/sells-group/pricefeed-cli/internal/state"
)

// openState opens and migrates the state database, creating its directory if
// needed.
func openState(ctx context.Context) (*state.SQLiteStore, error) {
	if dir := filepath.Dir(cfg.Paths.StateDB); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "create state dir %s", dir)
		}
	}

	states, err := state.NewSQLite(cfg.Paths.StateDB)
	if err != nil {
		return nil, err
	}
	if err := states.Migrate(ctx); err != nil {
		_ = states.Close()
		return nil, err
	}
	return states, nil
}

// newDriver wires a reconciliation driver from the loaded configuration.
func newDriver(states *state.SQLiteStore) (*reconcile.Driver, error) {
	for _, dir := range []string{cfg.Paths.PDFDir, filepath.Dir(cfg.Paths.DailyFile)} {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "create dir %s", dir)
			}
		}
	}

	f := fetcher.New(fetcher.Options{
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    time.Duration(cfg.HTTP.TimeoutSecs) * time.Second,
		MaxRetries: cfg.HTTP.MaxRetries,
	})

	return &reconcile.Driver{
		Source: fetcher.Site{
			Fetcher: f,
			PageURL: cfg.Source.PageURL,
			PDFDir:  cfg.Paths.PDFDir,
		},
		Decoder: extract.NewDecoder(cfg.Extract.PdfToTextPath),
		Books: sheet.Workbooks{
			DailyPath:     cfg.Paths.DailyFile,
			OverridesPath: cfg.Paths.OverridesFile,
		},
		States: states,
		PDFDir: cfg.Paths.PDFDir,
		Policy: reconcile.Policy{
			Cutoff:            circular.CutoffPolicy(cfg.Pipeline.Cutoff),
			DateFallbackToday: cfg.Pipeline.DateFallback != "skip",
			ReingestMissing:   cfg.Pipeline.ReingestMissing,
		},
	}, nil
}

// runMode executes one reconciliation pass in the given mode.
func runMode(ctx context.Context, mode reconcile.Mode) error {
	states, err := openState(ctx)
	if err != nil {
		return err
	}
	defer states.Close() //nolint:errcheck

	d, err := newDriver(states)
	if err != nil {
		return err
	}
	return d.Run(ctx, mode)
}
