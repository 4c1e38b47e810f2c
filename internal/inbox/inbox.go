// Package inbox imports transfer files dropped into a watched directory.
// Accepted files move to processed/, refused ones to rejected/.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/storage"
	"github.com/starford/cinesuite/internal/transfer"
)

// Subdirectories that receive handled files.
const (
	ProcessedDir = "processed"
	RejectedDir  = "rejected"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 200 * time.Millisecond

// Importer adds a decoded transfer document to a project.
type Importer interface {
	ImportData(ctx context.Context, projectID string, data []byte, opts transfer.ImportOptions) (transfer.ImportResult, error)
}

// EventCallback is called after a file was handled. kind is "imported" or
// "rejected".
type EventCallback func(kind, name string)

// Inbox watches one directory for transfer files.
type Inbox struct {
	files    storage.Provider
	root     string
	imp      Importer
	target   func() (string, bool)
	strict   bool
	debounce time.Duration
	logger   *slog.Logger
	cb       EventCallback
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithStrict rejects files that fail the shape check.
func WithStrict(strict bool) Option { return func(in *Inbox) { in.strict = strict } }

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option { return func(in *Inbox) { in.debounce = d } }

// WithCallback registers cb for handled files.
func WithCallback(cb EventCallback) Option { return func(in *Inbox) { in.cb = cb } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(in *Inbox) { in.logger = l } }

// New creates an inbox over files, whose directory on disk is root. target
// names the project that receives imports; it reports false when there is
// none.
func New(files storage.Provider, root string, imp Importer, target func() (string, bool), opts ...Option) *Inbox {
	in := &Inbox{
		files:    files,
		root:     root,
		imp:      imp,
		target:   target,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(in)
	}
	return in
}

// Sweep handles every transfer file already waiting in the inbox.
func (in *Inbox) Sweep(ctx context.Context) error {
	files, err := in.files.List("")
	if err != nil {
		return err
	}
	for _, f := range files {
		in.handle(ctx, f.Name)
	}
	return nil
}

// Watch sweeps the inbox and then handles new files until ctx is cancelled.
// Events for a file are debounced so that a file still being written is
// not read half way.
func (in *Inbox) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(in.root); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", in.root, err)
	}
	if err := in.Sweep(ctx); err != nil {
		in.logger.Warn("inbox: sweep failed", slog.String("error", err.Error()))
	}
	in.logger.Info("inbox: started", slog.String("root", in.root))

	pending := map[string]bool{}
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(in.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(in.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			in.logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			for name := range pending {
				in.handle(ctx, name)
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if strings.HasPrefix(name, ".") || !storage.IsTransferFile(name) {
				continue
			}
			pending[name] = true
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle imports one file and files it away. A file that vanished in the
// meantime is skipped.
func (in *Inbox) handle(ctx context.Context, name string) {
	if ok, err := in.files.Exists(name); err != nil || !ok {
		return
	}
	if err := in.importFile(ctx, name); err != nil {
		in.logger.Warn("inbox: rejected",
			slog.String("file", name),
			slog.String("error", err.Error()))
		in.file(name, RejectedDir, "rejected")
		return
	}
	in.file(name, ProcessedDir, "imported")
}

func (in *Inbox) importFile(ctx context.Context, name string) error {
	f, ok := codec.FormatFromName(name)
	if !ok {
		return fmt.Errorf("unsupported file type")
	}
	pid, ok := in.target()
	if !ok {
		return fmt.Errorf("no current project")
	}
	data, err := in.files.Read(name)
	if err != nil {
		return err
	}
	res, err := in.imp.ImportData(ctx, pid, data, transfer.ImportOptions{Strict: in.strict, Format: f})
	if err != nil {
		return err
	}
	in.logger.Info("inbox: imported",
		slog.String("file", name),
		slog.String("project_id", pid),
		slog.String("scene_id", res.Scene.ID))
	return nil
}

func (in *Inbox) file(name, dir, kind string) {
	if err := in.files.Move(name, path.Join(dir, name)); err != nil {
		in.logger.Warn("inbox: move failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}
	if in.cb != nil {
		in.cb(kind, name)
	}
}
