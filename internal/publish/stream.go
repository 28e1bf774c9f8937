package publish

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"csvpub/internal/domain"
)

// ── Publish streamer ───────────────────────────────────────
// Pattern: Airbyte read phase. Records flow in member-file order,
// then row order within a file. Invalid rows are emitted with their
// error attached, never dropped; only a malformed request or a fully
// unreadable file set terminates the stream.

// Streamer publishes typed records for one discovered schema.
type Streamer struct {
	log *zap.SugaredLogger
}

func NewStreamer(log *zap.SugaredLogger) *Streamer {
	return &Streamer{log: log}
}

// Stream decodes the schema's settings token and emits one Record per
// data row of each member file. The error channel carries at most one
// terminal error; both channels close when the stream ends.
func (s *Streamer) Stream(ctx context.Context, schema domain.Schema) (<-chan domain.Record, <-chan error) {
	out := make(chan domain.Record, 64)
	errCh := make(chan error, 1)

	files, err := domain.DecodeFileSet(schema.Settings)
	if err == nil && len(schema.Properties) == 0 {
		err = &domain.ProtocolError{Reason: "schema has no properties"}
	}
	if err != nil {
		errCh <- err
		close(errCh)
		close(out)
		return out, errCh
	}

	go func() {
		defer close(out)
		defer close(errCh)

		readable := 0
		var fileErrs error
		for _, path := range files {
			opened, err := s.streamFile(ctx, path, schema.Properties, out)
			if opened {
				readable++
			}
			if err != nil {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				s.log.Warnw("skipping member file", "path", path, "error", err)
				fileErrs = multierr.Append(fileErrs, err)
			}
		}
		if readable == 0 {
			errCh <- fmt.Errorf("no readable member files for schema %s: %w", schema.Name, fileErrs)
		}
	}()
	return out, errCh
}

// streamFile emits every data row of one file. The opened return
// reports whether the file yielded a header at all; a file that dies
// mid-read still counts as opened and is not a terminal condition.
func (s *Streamer) streamFile(ctx context.Context, path string, props []domain.Property, out chan<- domain.Record) (opened bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		return false, &domain.FileError{Path: path, Cause: domain.FileUnreadable, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	// First line is the header; the schema already describes it.
	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return false, &domain.FileError{Path: path, Cause: domain.FileEmpty}
		}
		return false, &domain.FileError{Path: path, Cause: domain.FileUnreadable, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return true, nil
		}
		if err != nil {
			return true, &domain.FileError{Path: path, Cause: domain.FileTruncated, Err: err}
		}
		select {
		case out <- buildRecord(props, row):
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

// buildRecord coerces one raw row against the schema. Data always
// carries exactly one value per schema column: short rows pad with
// null, long rows drop the extras, cells that fail coercion become
// null with the failure recorded on the Record.
func buildRecord(props []domain.Property, row []string) domain.Record {
	values := make([]any, len(props))
	var errs error
	if len(row) != len(props) {
		errs = multierr.Append(errs,
			fmt.Errorf("row has %d values, schema expects %d", len(row), len(props)))
	}
	for i, p := range props {
		if i >= len(row) {
			continue
		}
		v, ok := domain.CoerceValue(p.Type, row[i])
		if !ok {
			errs = multierr.Append(errs,
				&domain.RowError{Property: p.Name, Value: row[i], Type: p.Type})
			continue
		}
		values[i] = v
	}

	data, _ := json.Marshal(values)
	rec := domain.Record{Data: string(data)}
	if errs != nil {
		rec.Invalid = true
		rec.Error = errs.Error()
	}
	return rec
}
