package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"csvpub/internal/catalog"
	"csvpub/internal/discovery"
	"csvpub/internal/domain"
	"csvpub/internal/publish"
)

// ─────────────────────────────────────────────────────────────
// ConnectorService — business logic for discovery and publishing
// ─────────────────────────────────────────────────────────────

// ConnectorService ties the discovery runner and publish streamer
// together, records history in the catalog and owns the standing
// re-discovery triggers (file watch + cron).
type ConnectorService struct {
	runner   *discovery.Runner
	streamer *publish.Streamer
	catalog  *catalog.Store // nil disables history
	log      *zap.SugaredLogger

	runningOps runningOpsGuard

	// watcher / cron lifecycle
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// New creates a ConnectorService ready for use. catalogStore may be
// nil when history is disabled.
func New(runner *discovery.Runner, streamer *publish.Streamer, catalogStore *catalog.Store, log *zap.SugaredLogger) *ConnectorService {
	return &ConnectorService{
		runner:   runner,
		streamer: streamer,
		catalog:  catalogStore,
		log:      log,
	}
}

// PublishRequest is the publish input: the discovered schema to
// stream, echoed back by the client together with the settings the
// discovery ran with.
type PublishRequest struct {
	Settings domain.Settings `json:"settings"`
	Schema   domain.Schema   `json:"schema"`
}

// ── Discover ───────────────────────────────────────────────

// Discover runs one discovery pass and records it in the catalog.
func (s *ConnectorService) Discover(ctx context.Context, settings domain.Settings) ([]domain.Schema, error) {
	done := s.runningOps.Track("discover:" + uuid.New().String())
	defer done()

	var runID string
	if s.catalog != nil {
		id, err := s.catalog.BeginDiscovery(settings.FileGlob)
		if err != nil {
			s.log.Warnw("catalog: begin discovery failed", "error", err)
		} else {
			runID = id
		}
	}

	schemas, err := s.runner.Discover(ctx, settings)

	if runID != "" {
		if cerr := s.catalog.FinishDiscovery(runID, schemas, memberCount(schemas), err); cerr != nil {
			s.log.Warnw("catalog: finish discovery failed", "error", cerr)
		}
	}
	return schemas, err
}

func memberCount(schemas []domain.Schema) int {
	n := 0
	for _, sc := range schemas {
		if files, err := domain.DecodeFileSet(sc.Settings); err == nil {
			n += len(files)
		}
	}
	return n
}

// ── Publish ────────────────────────────────────────────────

// Publish opens a record stream for the request's schema. The stream
// is tracked for graceful shutdown; its outcome lands in the catalog
// once the consumer drains it.
func (s *ConnectorService) Publish(ctx context.Context, req PublishRequest) (<-chan domain.Record, <-chan error) {
	s.log.Infow("publish requested", "schema", req.Schema.Name, "glob", req.Settings.FileGlob)

	recs, errs := s.streamer.Stream(ctx, req.Schema)

	out := make(chan domain.Record, 64)
	errOut := make(chan error, 1)
	done := s.runningOps.Track("publish:" + uuid.New().String())

	go func() {
		defer close(out)
		defer close(errOut)
		defer done()

		start := time.Now()
		records, invalid := 0, 0
	forward:
		for rec := range recs {
			select {
			case out <- rec:
				records++
				if rec.Invalid {
					invalid++
				}
			case <-ctx.Done():
				break forward
			}
		}
		for range recs {
			// cancelled mid-forward; let the engine wind down
		}

		err := <-errs
		if err != nil {
			errOut <- err
		}
		if s.catalog != nil {
			if cerr := s.catalog.RecordPublish(req.Schema.Name, records, invalid, time.Since(start), err); cerr != nil {
				s.log.Warnw("catalog: record publish failed", "error", cerr)
			}
		}
		s.log.Infow("publish stream finished",
			"schema", req.Schema.Name, "records", records, "invalid", invalid, "error", err)
	}()
	return out, errOut
}

// Preview drains up to maxRows records from a publish stream. Used by
// the MCP tools to inspect data without running a full stream.
func (s *ConnectorService) Preview(ctx context.Context, schema domain.Schema, maxRows int) ([]domain.Record, error) {
	if maxRows <= 0 {
		maxRows = 10
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recs, errs := s.streamer.Stream(ctx, schema)
	out := make([]domain.Record, 0, maxRows)
	for rec := range recs {
		out = append(out, rec)
		if len(out) >= maxRows {
			cancel()
			break
		}
	}
	for range recs {
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return out, nil
}

// ── Catalog passthroughs ───────────────────────────────────

var errCatalogDisabled = errors.New("catalog is disabled")

// KnownSchemas returns the schemas of the last successful discovery
// recorded in the catalog.
func (s *ConnectorService) KnownSchemas() ([]domain.Schema, error) {
	if s.catalog == nil {
		return nil, errCatalogDisabled
	}
	return s.catalog.LatestSchemas()
}

// DiscoveryHistory returns recent discovery runs, newest first.
func (s *ConnectorService) DiscoveryHistory(limit int) ([]catalog.DiscoveryRun, error) {
	if s.catalog == nil {
		return nil, errCatalogDisabled
	}
	return s.catalog.ListRuns(limit)
}

// PublishHistory returns recent publish streams, newest first.
func (s *ConnectorService) PublishHistory(limit int) ([]catalog.PublishRun, error) {
	if s.catalog == nil {
		return nil, errCatalogDisabled
	}
	return s.catalog.ListPublishRuns(limit)
}

// ActiveOps returns the number of in-flight operations.
func (s *ConnectorService) ActiveOps() int {
	return s.runningOps.Active()
}

// ── Standing triggers (file watch + cron) ──────────────────

// TriggerConfig configures standing re-discovery of one glob.
type TriggerConfig struct {
	Glob     string
	Watch    bool   // re-discover when files under the glob change
	CronExpr string // re-discover on a schedule
}

// StartTriggers sets up watch-mode and scheduled re-discovery. Calling
// it again replaces the previous triggers.
func (s *ConnectorService) StartTriggers(ctx context.Context, cfg TriggerConfig) error {
	s.stopTriggers()
	if cfg.Glob == "" || (!cfg.Watch && cfg.CronExpr == "") {
		return nil
	}

	if cfg.CronExpr != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.CronExpr, func() {
			s.refresh(ctx, cfg.Glob, "cron")
		}); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cfg.CronExpr, err)
		}
		c.Start()
		s.cronSched = c
		s.log.Infow("scheduled re-discovery", "glob", cfg.Glob, "cron", cfg.CronExpr)
	}

	if cfg.Watch {
		if err := s.startWatcher(ctx, cfg.Glob); err != nil {
			s.stopTriggers()
			return err
		}
	}
	return nil
}

// refresh runs a deduplicated discovery pass for the standing glob.
// Overlapping triggers for the same glob collapse into one pass.
func (s *ConnectorService) refresh(ctx context.Context, glob, trigger string) {
	key := "refresh:" + glob
	if !s.runningOps.TryLock(key) {
		s.log.Debugw("refresh already running", "glob", glob, "trigger", trigger)
		return
	}
	defer s.runningOps.Unlock(key)

	schemas, err := s.Discover(ctx, domain.Settings{FileGlob: glob})
	if err != nil {
		s.log.Warnw("re-discovery failed", "glob", glob, "trigger", trigger, "error", err)
		return
	}
	s.log.Infow("re-discovery complete", "glob", glob, "trigger", trigger, "schemas", len(schemas))
}

func (s *ConnectorService) startWatcher(ctx context.Context, glob string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	files, err := discovery.Locate(glob)
	if err != nil {
		watcher.Close()
		return err
	}

	watchedDirs := make(map[string]bool)
	for _, f := range files {
		dir := filepath.Dir(f)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			s.log.Warnw("failed to watch directory", "dir", dir, "error", err)
		} else {
			watchedDirs[dir] = true
		}
	}
	// No matches yet: watch the pattern's fixed directory prefix so
	// the first file to appear still triggers a pass.
	if len(watchedDirs) == 0 {
		dir := globDir(glob)
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		watchedDirs[dir] = true
	}

	s.watcher = watcher
	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// Membership changes matter as much as content changes.
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() {
					s.log.Infow("file change detected", "glob", glob, "path", event.Name)
					s.refresh(ctx, glob, "watch")
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warnw("watcher error", "error", err)
			}
		}
	}()

	s.log.Infow("watching for file changes", "glob", glob, "dirs", len(watchedDirs))
	return nil
}

// globDir returns the fixed directory prefix of a glob pattern.
func globDir(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return filepath.Dir(pattern[:i])
	}
	return filepath.Dir(pattern)
}

// ── Lifecycle ──────────────────────────────────────────────

// WaitRunning blocks until all in-flight operations finish or ctx is
// cancelled. Used for graceful shutdown.
func (s *ConnectorService) WaitRunning(ctx context.Context) {
	s.runningOps.WaitAll(ctx)
}

// Stop tears down all watchers and schedulers.
func (s *ConnectorService) Stop() {
	s.stopTriggers()
}

func (s *ConnectorService) stopTriggers() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
