package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/pkg/pdftext"
)

const (
	inboxProcessedDir = "processed"
	inboxFailedDir    = "failed"
	defaultInboxDelay = 500 * time.Millisecond
)

type inboxSubmitter interface {
	Submit(ctx context.Context, req dto.ImportRequest) (*dto.ImportJobResponse, error)
	SubmitPDF(ctx context.Context, name string, data []byte) (*dto.ImportJobResponse, error)
}

// InboxWatcher submits documents dropped into a directory. A .pdf is
// converted with pdftotext; a .txt holds pages already converted, separated by
// form feeds. Handled files move to processed/ or failed/ under the inbox.
type InboxWatcher struct {
	dir       string
	delay     time.Duration
	submitter inboxSubmitter
	logger    *zap.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// NewInboxWatcher constructs a watcher. Events for one file are coalesced
// until it has been quiet for delay.
func NewInboxWatcher(dir string, submitter inboxSubmitter, delay time.Duration, logger *zap.Logger) *InboxWatcher {
	if delay <= 0 {
		delay = defaultInboxDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InboxWatcher{
		dir:       dir,
		delay:     delay,
		submitter: submitter,
		logger:    logger,
		timers:    make(map[string]*time.Timer),
	}
}

// Run handles files already in the inbox, then watches it until ctx is cancelled.
func (w *InboxWatcher) Run(ctx context.Context) error {
	for _, sub := range []string{inboxProcessedDir, inboxFailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("create inbox dir: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan inbox: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && inboxFile(entry.Name()) {
			w.trigger(ctx, filepath.Join(w.dir, entry.Name()))
		}
	}
	w.logger.Info("inbox watcher started", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.stop()
			w.logger.Info("inbox watcher stopped", zap.String("dir", w.dir))
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				w.stop()
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && inboxFile(event.Name) {
				w.trigger(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				w.stop()
				return nil
			}
			w.logger.Warn("inbox watcher error", zap.Error(err))
		}
	}
}

// HandleFile submits one inbox file and moves it out of the inbox.
func (w *InboxWatcher) HandleFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	var resp *dto.ImportJobResponse
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		resp, err = w.submitter.SubmitPDF(ctx, name, data)
	} else {
		resp, err = w.submitter.Submit(ctx, dto.ImportRequest{Source: name, Pages: pdftext.SplitPages(string(data))})
	}

	dest := inboxProcessedDir
	if err != nil {
		dest = inboxFailedDir
		w.logger.Error("inbox import failed", zap.String("file", name), zap.Error(err))
	} else {
		w.logger.Info("inbox import submitted",
			zap.String("file", name),
			zap.String("job_id", resp.ID),
			zap.Bool("duplicate", resp.Duplicate),
		)
	}
	if moveErr := os.Rename(path, filepath.Join(w.dir, dest, name)); moveErr != nil {
		w.logger.Warn("failed to move inbox file", zap.String("file", name), zap.Error(moveErr))
	}
	return err
}

func (w *InboxWatcher) trigger(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok && timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.delay, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.timers[path] == timer {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		_ = w.HandleFile(ctx, path)
	})
	w.timers[path] = timer
}

// stop cancels pending files and waits for running ones.
func (w *InboxWatcher) stop() {
	w.mu.Lock()
	for path, timer := range w.timers {
		if timer.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func inboxFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".txt":
		return true
	default:
		return false
	}
}
