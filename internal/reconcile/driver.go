package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/pricefeed-cli/internal/circular"
	"github.com/sells-group/pricefeed-cli/internal/extract"
	"github.com/sells-group/pricefeed-cli/internal/fetcher"
	"github.com/sells-group/pricefeed-cli/internal/state"
)

// Mode selects which reconciliation pass to run.
type Mode string

const (
	// ModeNormal ingests the newest circular, if any, then rebuilds the
	// daily series.
	ModeNormal Mode = "normal"
	// ModeBackfill ingests every locally available circular not yet
	// processed, then rebuilds once.
	ModeBackfill Mode = "backfill"
	// ModeRepair rebuilds the daily series from stored events without
	// fetching or extracting anything.
	ModeRepair Mode = "repair"
)

// Source locates and retrieves circulars from the publisher's site.
type Source interface {
	LatestCircularURL(ctx context.Context) (string, error)
	Download(ctx context.Context, rawURL string) (string, error)
}

// Decoder decodes a downloaded PDF into a structured document.
type Decoder interface {
	Decode(ctx context.Context, path string) (extract.Document, error)
}

// Workbooks reads and writes the persisted tables.
type Workbooks interface {
	ReadDaily() ([]circular.StoredRow, error)
	ReadOverrides() ([]circular.Override, error)
	WriteDaily(rows []circular.Row) error
}

// Policy holds the run-behavior knobs that deployments disagree on; they are
// explicit configuration rather than defaults buried in parsers.
type Policy struct {
	// Cutoff bounds the daily series expansion.
	Cutoff circular.CutoffPolicy
	// DateFallbackToday defaults an unresolvable effective date to today
	// instead of failing the document.
	DateFallbackToday bool
	// ReingestMissing re-extracts documents already in the processed set
	// when their event is missing from the store.
	ReingestMissing bool
}

// Driver orchestrates one reconciliation pass over the injected
// collaborators. It assumes at most one active run against a given store.
type Driver struct {
	Source  Source
	Decoder Decoder
	Books   Workbooks
	States  state.Store
	PDFDir  string
	Policy  Policy
	Now     func() time.Time
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Run executes the selected mode and records the outcome in the run log.
func (d *Driver) Run(ctx context.Context, mode Mode) error {
	runID, err := d.States.StartRun(ctx, string(mode))
	if err != nil {
		return err
	}

	var added int
	switch mode {
	case ModeNormal:
		added, err = d.runNormal(ctx)
	case ModeBackfill:
		added, err = d.runBackfill(ctx)
	case ModeRepair:
		added, err = d.runRepair(ctx)
	default:
		err = eris.Errorf("reconcile: unknown mode %q", mode)
	}

	if err != nil {
		if ferr := d.States.FailRun(ctx, runID, err.Error()); ferr != nil {
			zap.L().Warn("failed to record run failure", zap.Error(ferr))
		}
		return err
	}
	if cerr := d.States.CompleteRun(ctx, runID, added); cerr != nil {
		zap.L().Warn("failed to record run completion", zap.Error(cerr))
	}
	return nil
}

// runNormal checks the publisher's page for a circular newer than the last
// one seen, ingests it if present, and always rebuilds the daily series so
// forward-fill catches up even without a new circular.
func (d *Driver) runNormal(ctx context.Context) (int, error) {
	log := zap.L().With(zap.String("mode", string(ModeNormal)))

	st, err := d.States.Load(ctx)
	if err != nil {
		return 0, err
	}
	store, err := d.loadStored()
	if err != nil {
		return 0, err
	}
	if err := d.applyOverrides(store); err != nil {
		return 0, err
	}

	pdfURL, err := d.Source.LatestCircularURL(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "reconcile: resolve latest circular")
	}

	added := 0
	if pdfURL != "" && fetcher.NormalizeURL(pdfURL) != fetcher.NormalizeURL(st.LatestURL) {
		path, err := d.Source.Download(ctx, pdfURL)
		if err != nil {
			return 0, eris.Wrap(err, "reconcile: download circular")
		}
		name := filepath.Base(path)
		log.Info("downloaded new circular", zap.String("file", name), zap.String("url", pdfURL))

		ev, err := d.extractEvent(ctx, path, pdfURL)
		if err != nil {
			// Normal mode has exactly one document to process; a bad one
			// fails the run.
			return 0, err
		}

		store.InsertOrReplace(ev)
		st.LatestURL = pdfURL
		st.LastProcessed = name
		st.MarkProcessed(name)
		added = 1
		log.Info("circular event recorded",
			zap.String("effective_date", circular.FormatDot(ev.EffectiveDate)),
			zap.String("price", ev.Price.Decimal.StringFixed(3)),
		)
	} else {
		log.Info("no new circular, forward-filling daily series")
	}

	if err := d.rebuild(store); err != nil {
		return added, err
	}
	if err := d.States.Save(ctx, st); err != nil {
		return added, err
	}
	return added, nil
}

// runBackfill walks every local circular oldest first, skipping processed
// documents, and rebuilds the daily series once at the end. Per-document
// failures are logged and skipped.
func (d *Driver) runBackfill(ctx context.Context) (int, error) {
	log := zap.L().With(zap.String("mode", string(ModeBackfill)))

	st, err := d.States.Load(ctx)
	if err != nil {
		return 0, err
	}
	store, err := d.loadStored()
	if err != nil {
		return 0, err
	}

	files, err := listPDFs(d.PDFDir)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, path := range files {
		name := filepath.Base(path)
		cdate, ok := circular.ParseFilenameDate(name)
		if !ok {
			log.Debug("skipping file without embedded date", zap.String("file", name))
			continue
		}

		if st.IsProcessed(name) {
			if _, exists := store.Get(cdate); exists || !d.Policy.ReingestMissing {
				continue
			}
			log.Info("re-ingesting processed document with missing event", zap.String("file", name))
		}

		ev, err := d.extractEvent(ctx, path, "")
		if err != nil {
			log.Warn("skipping document", zap.String("file", name), zap.Error(err))
			continue
		}
		// Keep an already-known real link over the synthesized guess.
		if existing, ok := store.Get(cdate); ok && existing.SourceLink != "" {
			ev.SourceLink = existing.SourceLink
		}

		store.InsertOrReplace(ev)
		st.MarkProcessed(name)
		added++
	}

	if err := d.applyOverrides(store); err != nil {
		return added, err
	}
	if err := d.rebuild(store); err != nil {
		return added, err
	}
	if err := d.States.Save(ctx, st); err != nil {
		return added, err
	}

	log.Info("backfill complete", zap.Int("events_added", added))
	return added, nil
}

// runRepair rebuilds the daily series from stored events alone.
func (d *Driver) runRepair(ctx context.Context) (int, error) {
	store, err := d.loadStored()
	if err != nil {
		return 0, err
	}
	if err := d.applyOverrides(store); err != nil {
		return 0, err
	}
	if store.Len() == 0 {
		zap.L().Info("no events present to rebuild from")
		return 0, nil
	}
	return 0, d.rebuild(store)
}

func (d *Driver) loadStored() (*circular.Store, error) {
	rows, err := d.Books.ReadDaily()
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: read stored table")
	}
	return circular.LoadFromRows(rows), nil
}

func (d *Driver) applyOverrides(store *circular.Store) error {
	overrides, err := d.Books.ReadOverrides()
	if err != nil {
		return eris.Wrap(err, "reconcile: read overrides")
	}
	for _, o := range overrides {
		store.ApplyOverride(o)
	}
	if len(overrides) > 0 {
		zap.L().Info("applied manual overrides", zap.Int("count", len(overrides)))
	}
	return nil
}

// extractEvent decodes one circular and turns it into an event. The
// effective date comes from the filename, then the source URL, then the
// configured fallback.
func (d *Driver) extractEvent(ctx context.Context, path, sourceURL string) (circular.Event, error) {
	name := filepath.Base(path)

	doc, err := d.Decoder.Decode(ctx, path)
	if err != nil {
		return circular.Event{}, eris.Wrapf(err, "reconcile: decode %s", name)
	}

	row, err := extract.FindRow(doc)
	if err != nil {
		return circular.Event{}, eris.Wrapf(err, "reconcile: %s", name)
	}

	value, ok := circular.NormalizePrice(row.RawPrice)
	if !ok {
		return circular.Event{}, eris.Wrapf(ErrPriceUnparseable, "reconcile: %s: raw price %q", name, row.RawPrice)
	}

	cdate, ok := circular.ParseFilenameDate(name)
	if !ok {
		cdate, ok = circular.ParseFilenameDate(sourceURL)
	}
	if !ok {
		if !d.Policy.DateFallbackToday {
			return circular.Event{}, eris.Wrapf(ErrDateUnresolved, "reconcile: %s", name)
		}
		cdate = circular.Day(d.now())
		zap.L().Warn("effective date unresolved, defaulting to today", zap.String("file", name))
	}

	return circular.Event{
		EffectiveDate: cdate,
		Description:   row.Description,
		Grade:         circular.DefaultGrade,
		Price:         decimal.NullDecimal{Decimal: value, Valid: true},
		SourceLink:    sourceURL,
	}, nil
}

// rebuild regenerates the daily table wholesale from the store.
func (d *Driver) rebuild(store *circular.Store) error {
	cutoff := d.Policy.Cutoff.Cutoff(d.now(), store.LatestDate())
	rows := circular.Expand(store, cutoff)
	if err := d.Books.WriteDaily(rows); err != nil {
		return eris.Wrap(err, "reconcile: write daily table")
	}
	zap.L().Info("daily series written",
		zap.Int("rows", len(rows)),
		zap.String("cutoff", circular.FormatDash(cutoff)),
	)
	return nil
}

// listPDFs returns the PDF files under dir sorted by modification time,
// oldest first. A missing directory yields no files.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "reconcile: read pdf dir %s", dir)
	}

	type datedFile struct {
		path  string
		mtime time.Time
	}
	var files []datedFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, datedFile{
			path:  filepath.Join(dir, e.Name()),
			mtime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].mtime.Before(files[j].mtime) })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}
