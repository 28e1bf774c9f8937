package discovery

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"csvpub/internal/domain"
)

// candidateFile pairs a located file with its parsed header. It lives
// only between location and clustering.
type candidateFile struct {
	path   string
	header []string
}

// newCSVReader configures a reader tolerant of the CSV found in the
// wild: stray quotes, padded cells, rows of uneven width.
func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

// readHeader reads and normalizes the first line of a CSV file.
// Names keep their position; duplicates and empties are preserved
// because header identity is positional, not nominal.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.FileError{Path: path, Cause: domain.FileUnreadable, Err: err}
	}
	defer f.Close()

	row, err := newCSVReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, &domain.FileError{Path: path, Cause: domain.FileEmpty}
	}
	if err != nil {
		return nil, &domain.FileError{Path: path, Cause: domain.FileUnreadable, Err: err}
	}

	header := make([]string, len(row))
	for i, name := range row {
		header[i] = strings.Trim(strings.TrimSpace(name), `"'`)
	}
	return header, nil
}
