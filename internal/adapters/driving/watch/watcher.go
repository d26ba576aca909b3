// Package watch ingests files dropped into a directory and removes the
// upload again when the file goes away. Each file maps to a stable upload
// id derived from its absolute path, so edits replace the previous upload.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/custodia-labs/sheetrag/internal/core/domain"
	"github.com/custodia-labs/sheetrag/internal/core/ports/driving"
	"github.com/custodia-labs/sheetrag/internal/logger"
)

// DefaultDebounce coalesces bursts of writes to the same file.
const DefaultDebounce = 500 * time.Millisecond

// ChangeType is what a filesystem event means for the file's upload.
type ChangeType string

const (
	// ChangeIngest replaces the upload with the file's current content.
	ChangeIngest ChangeType = "ingest"

	// ChangeDelete removes the upload.
	ChangeDelete ChangeType = "delete"
)

// Change is one pending action for a file.
type Change struct {
	Type     ChangeType
	Path     string
	UploadID string
}

// Result reports the outcome of applying a change.
type Result struct {
	Change Change
	Report *domain.IngestReport
	Err    error
}

// Watcher applies filesystem changes under a root directory to an ingest service.
type Watcher struct {
	root     string
	ingest   driving.IngestService
	debounce time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long to wait for a file to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for root.
func New(root string, ingest driving.IngestService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		ingest:   ingest,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// UploadIDFor returns the stable upload id of a file.
func UploadIDFor(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}

// Validate checks that the root exists and is a directory.
func (w *Watcher) Validate() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch root %s is not a directory: %w", w.root, domain.ErrInvalidInput)
	}
	return nil
}

// Scan ingests every supported file already under the root.
func (w *Watcher) Scan(ctx context.Context, report func(Result)) error {
	var changes []Change
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isSupported(path) {
			return nil
		}
		changes = append(changes, Change{Type: ChangeIngest, Path: path, UploadID: UploadIDFor(path)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.root, err)
	}

	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(report, w.apply(ctx, c))
	}
	return nil
}

// Run watches the root until ctx is cancelled, reporting each applied change.
func (w *Watcher) Run(ctx context.Context, report func(Result)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}

	pending := make(map[string]Change)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && isDir(event.Name) && !isHidden(filepath.Base(event.Name)) {
				if err := w.addTree(fsw, event.Name); err != nil {
					logger.Warn("watch: %v", err)
				}
				continue
			}
			if change := w.handleFsEvent(event); change != nil {
				pending[change.Path] = *change
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			for _, c := range drain(pending) {
				emit(report, w.apply(ctx, c))
			}
		}
	}
}

// handleFsEvent maps a filesystem event to a change, or nil when the
// event does not affect an upload.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	name := filepath.Base(event.Name)
	if isHidden(name) || !isSupported(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeDelete, Path: event.Name, UploadID: UploadIDFor(event.Name)}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if isDir(event.Name) {
			return nil
		}
		return &Change{Type: ChangeIngest, Path: event.Name, UploadID: UploadIDFor(event.Name)}
	}
	return nil
}

// apply replaces or removes the file's upload. An ingest deletes the
// previous chunks first so edits never leave stale rows behind.
func (w *Watcher) apply(ctx context.Context, c Change) Result {
	log := logger.With("path", c.Path, "upload_id", c.UploadID, "change", string(c.Type))

	if err := w.ingest.DeleteUpload(ctx, c.UploadID); err != nil {
		log.Errorw("watch: delete failed", "error", err)
		return Result{Change: c, Err: err}
	}
	if c.Type == ChangeDelete {
		log.Debugw("watch: upload removed")
		return Result{Change: c}
	}

	report, err := w.ingest.Ingest(ctx, driving.IngestRequest{
		UploadID: c.UploadID,
		Filename: filepath.Base(c.Path),
		Path:     c.Path,
		Replace:  true,
	})
	if err != nil {
		// The file may have vanished between the event and the read.
		if errors.Is(err, fs.ErrNotExist) {
			return Result{Change: Change{Type: ChangeDelete, Path: c.Path, UploadID: c.UploadID}}
		}
		log.Errorw("watch: ingest failed", "error", err)
		return Result{Change: c, Err: err}
	}
	log.Debugw("watch: ingested", "chunks", report.Chunks)
	return Result{Change: c, Report: report}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// drain empties pending and returns its changes ordered by path.
func drain(pending map[string]Change) []Change {
	out := make([]Change, 0, len(pending))
	for path, c := range pending {
		out = append(out, c)
		delete(pending, path)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func emit(report func(Result), r Result) {
	if report != nil {
		report(r)
	}
}

func isSupported(path string) bool {
	_, err := domain.ParseFormat(path)
	return err == nil
}

// isHidden reports whether a base name is a dotfile. "." and ".." are not hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
