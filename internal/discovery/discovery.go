package discovery

import (
	"context"

	"go.uber.org/zap"

	"csvpub/internal/domain"
)

// ── Discovery runner ───────────────────────────────────────
// Pattern: Airbyte connector protocol (spec → discover → read).
// Discovery never fails a request because of bad files: unreadable
// members are skipped and logged, and an empty schema list is a valid
// answer. Only a malformed request aborts.

// Runner executes the discovery pipeline: locate files, read headers,
// cluster by exact header identity, infer column types.
type Runner struct {
	sampleRows int
	log        *zap.SugaredLogger
}

// NewRunner builds a Runner. sampleRows <= 0 selects the default
// sampling budget.
func NewRunner(log *zap.SugaredLogger, sampleRows int) *Runner {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return &Runner{sampleRows: sampleRows, log: log}
}

// Discover expands the glob, groups the matched files by header shape
// and returns one typed schema per group. Each schema carries an
// opaque settings token encoding its member files; callers echo the
// token back on publish.
func (r *Runner) Discover(ctx context.Context, settings domain.Settings) ([]domain.Schema, error) {
	files, err := Locate(settings.FileGlob)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r.log.Warnw("discovery matched no files",
			"error", &domain.DiscoveryError{Glob: settings.FileGlob, Reason: "glob matched no files"})
		return []domain.Schema{}, nil
	}

	candidates := make([]candidateFile, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		header, err := readHeader(path)
		if err != nil {
			r.log.Warnw("skipping file", "path", path, "error", err)
			continue
		}
		candidates = append(candidates, candidateFile{path: path, header: header})
	}
	if len(candidates) == 0 {
		r.log.Warnw("discovery found no readable headers",
			"error", &domain.DiscoveryError{Glob: settings.FileGlob, Reason: "no matched file yielded a readable header"})
		return []domain.Schema{}, nil
	}

	groups := cluster(candidates)
	schemas := make([]domain.Schema, 0, len(groups))
	for _, g := range groups {
		props := make([]domain.Property, len(g.header))
		for i, col := range g.header {
			props[i] = domain.Property{Name: col, Type: domain.TypeUnknown}
		}
		sc := domain.Schema{
			Name:       g.name,
			Settings:   domain.EncodeFileSet(g.paths),
			Properties: props,
		}
		if !settings.SkipInference {
			if err := inferTypes(ctx, &sc, g.paths, r.sampleRows); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.log.Warnw("type inference skipped files", "schema", g.name, "error", err)
			}
		}
		schemas = append(schemas, sc)
	}

	r.log.Infow("discovery complete",
		"glob", settings.FileGlob, "files", len(files), "schemas", len(schemas))
	return schemas, nil
}
