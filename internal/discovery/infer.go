package discovery

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"csvpub/internal/domain"
)

// inferenceOrder lists candidate types most specific first. A column's
// final type is the most specific candidate every sampled non-empty
// value satisfies; string is the implicit fallback.
var inferenceOrder = []domain.PropertyType{
	domain.TypeBoolean,
	domain.TypeInteger,
	domain.TypeNumber,
	domain.TypeDatetime,
}

// DefaultSampleRows bounds how many data rows inference examines per
// schema, across all of its member files.
const DefaultSampleRows = 100

// inferTypes samples data rows from the group's files in order and
// fills in the schema's property types. Files that fail mid-sampling
// are skipped and reported in the aggregate error; a context
// cancellation is returned as-is.
func inferTypes(ctx context.Context, schema *domain.Schema, files []string, sampleRows int) error {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}

	cols := len(schema.Properties)
	viable := make([][]bool, cols)
	for i := range viable {
		viable[i] = make([]bool, len(inferenceOrder))
		for j := range viable[i] {
			viable[i][j] = true
		}
	}
	sampled := make([]int, cols)

	var errs error
	remaining := sampleRows
	for _, path := range files {
		if remaining <= 0 {
			break
		}
		n, err := sampleFile(ctx, path, viable, sampled, remaining)
		remaining -= n
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = multierr.Append(errs, err)
		}
	}

	for i := range schema.Properties {
		schema.Properties[i].Type = resolveType(viable[i], sampled[i])
	}
	return errs
}

// sampleFile feeds up to limit data rows of one file into the
// viability grid and returns how many rows it consumed.
func sampleFile(ctx context.Context, path string, viable [][]bool, sampled []int, limit int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, &domain.FileError{Path: path, Cause: domain.FileUnreadable, Err: err}
	}
	defer f.Close()

	r := newCSVReader(f)
	if _, err := r.Read(); err != nil {
		// The header was readable moments ago; the file changed under us.
		cause := domain.FileUnreadable
		if errors.Is(err, io.EOF) {
			cause = domain.FileEmpty
			err = nil
		}
		return 0, &domain.FileError{Path: path, Cause: cause, Err: err}
	}

	rows := 0
	for rows < limit {
		select {
		case <-ctx.Done():
			return rows, ctx.Err()
		default:
		}

		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			// A torn record ends sampling here; rows before it still count.
			return rows, &domain.FileError{Path: path, Cause: domain.FileTruncated, Err: err}
		}
		rows++

		for col := range viable {
			if col >= len(row) {
				continue // short row: a missing cell is no evidence
			}
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			sampled[col]++
			for j, typ := range inferenceOrder {
				if viable[col][j] && !typ.Accepts(v) {
					viable[col][j] = false
				}
			}
		}
	}
	return rows, nil
}

func resolveType(viable []bool, sampled int) domain.PropertyType {
	if sampled == 0 {
		return domain.TypeUnknown
	}
	for j, ok := range viable {
		if ok {
			return inferenceOrder[j]
		}
	}
	return domain.TypeString
}
