// Package inbox imports receipt images dropped into a directory. Each image
// is scanned for its total and recorded as a transaction of one user; the
// file is then moved to the processed subdirectory so it is never imported
// twice.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"

	"mankeu/models"
	"mankeu/pkg/ledger"
	"mankeu/pkg/receipt"
)

const (
	ProcessedDir = "processed"

	debounceTick = 250 * time.Millisecond
	settleAfter  = 300 * time.Millisecond
)

type Scanner interface {
	Scan(ctx context.Context, path string) (receipt.Suggestion, string, error)
}

type Recorder interface {
	Create(ctx context.Context, userID uint, in ledger.CreateInput) (*models.Transaction, error)
}

type Options struct {
	Dir        string
	UserID     uint
	CategoryID uint
	GoalID     *uint
	Workers    int
	// MinConfidence skips suggestions the scanner is unsure of.
	MinConfidence float64
	DryRun        bool
}

// Result is the outcome for one file.
type Result struct {
	File        string
	Amount      decimal.Decimal
	Confidence  float64
	Transaction uint
	Skipped     string
}

type Importer struct {
	opts     Options
	scanner  Scanner
	recorder Recorder
	logger   *slog.Logger

	mu      sync.Mutex
	results []Result
}

func New(opts Options, scanner Scanner, recorder Recorder, logger *slog.Logger) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Importer{opts: opts, scanner: scanner, recorder: recorder, logger: logger}
}

// Results returns a copy of the outcomes recorded so far.
func (im *Importer) Results() []Result {
	im.mu.Lock()
	defer im.mu.Unlock()
	return append([]Result(nil), im.results...)
}

// ImportExisting processes the images already present in the directory and
// returns when all of them are done.
func (im *Importer) ImportExisting(ctx context.Context) error {
	files, err := ListImages(im.opts.Dir)
	if err != nil {
		return err
	}
	im.logger.InfoContext(ctx, "scanning inbox", "dir", im.opts.Dir, "files", len(files), "workers", im.opts.Workers)
	ch := make(chan string, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	im.runWorkers(ctx, ch)
	return nil
}

// Watch processes images created in the directory until ctx is cancelled.
// Events for a file are debounced until it stops changing.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.opts.Dir); err != nil {
		return err
	}
	im.logger.InfoContext(ctx, "watching inbox", "dir", im.opts.Dir)

	files := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		im.runWorkers(ctx, files)
		close(done)
	}()

	err = debounce(ctx, w.Events, w.Errors, files, im.logger)
	close(files)
	<-done
	return err
}

// debounce forwards a file name once no event has touched it for
// settleAfter. It returns nil when ctx ends.
func debounce(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, out chan<- string, logger *slog.Logger) error {
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if Supported(name) {
				pending[name] = time.Now()
			}
		case <-ticker.C:
			now := time.Now()
			var ready []string
			for name, t := range pending {
				if now.Sub(t) >= settleAfter {
					ready = append(ready, name)
				}
			}
			sort.Strings(ready)
			for _, name := range ready {
				delete(pending, name)
				select {
				case out <- name:
				case <-ctx.Done():
					return nil
				}
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}

func (im *Importer) runWorkers(ctx context.Context, files <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < im.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range files {
				if ctx.Err() != nil {
					continue
				}
				res, err := im.Process(ctx, name)
				if err != nil {
					im.logger.ErrorContext(ctx, "receipt import failed", "file", name, "error", err)
					continue
				}
				im.mu.Lock()
				im.results = append(im.results, res)
				im.mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

// Process imports one file of the inbox directory.
func (im *Importer) Process(ctx context.Context, name string) (Result, error) {
	res := Result{File: name}
	path := filepath.Join(im.opts.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return res, err
	}

	sug, _, err := im.scanner.Scan(ctx, path)
	if errors.Is(err, receipt.ErrNoAmount) {
		res.Skipped = "no amount detected"
		im.logger.InfoContext(ctx, "receipt skipped", "file", name, "reason", res.Skipped)
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", name, err)
	}
	res.Amount, res.Confidence = sug.Amount, sug.Confidence
	if sug.Confidence < im.opts.MinConfidence {
		res.Skipped = fmt.Sprintf("confidence %.2f below %.2f", sug.Confidence, im.opts.MinConfidence)
		im.logger.InfoContext(ctx, "receipt skipped", "file", name, "amount", sug.Amount, "reason", res.Skipped)
		return res, nil
	}
	if im.opts.DryRun {
		im.logger.InfoContext(ctx, "receipt (dry run)", "file", name, "amount", sug.Amount, "confidence", sug.Confidence)
		return res, nil
	}

	date := models.NewDate(info.ModTime())
	categoryID := im.opts.CategoryID
	notes := "imported from " + name
	t, err := im.recorder.Create(ctx, im.opts.UserID, ledger.CreateInput{
		CategoryID:      &categoryID,
		Name:            TransactionName(name),
		TransactionDate: &date,
		Amount:          &sug.Amount,
		Notes:           &notes,
		GoalID:          im.opts.GoalID,
	})
	if err != nil {
		return res, fmt.Errorf("record %s: %w", name, err)
	}
	res.Transaction = t.ID
	if err := moveProcessed(im.opts.Dir, name); err != nil {
		return res, err
	}
	im.logger.InfoContext(ctx, "receipt imported", "file", name, "transaction_id", t.ID, "amount", sug.Amount, "confidence", sug.Confidence)
	return res, nil
}

func moveProcessed(dir, name string) error {
	dst := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(dir, name), filepath.Join(dst, name))
}

// TransactionName derives a transaction name from a file name.
func TransactionName(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	base = strings.Join(strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
	if base == "" {
		base = "receipt"
	}
	name := "Receipt " + base
	for utf8.RuneCountInString(name) > 100 {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}

// ListImages returns the supported image files directly inside dir.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func Supported(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
