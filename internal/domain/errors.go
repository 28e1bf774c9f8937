package domain

import "fmt"

// ── Error taxonomy ─────────────────────────────────────────
// Discovery and publish distinguish four failure shapes: a whole
// discovery pass yielding nothing, a single bad file, a single bad
// row, and a malformed request. Only the last two ever abort an
// operation; the first two degrade it.

// FileCause enumerates per-file failure causes.
type FileCause string

const (
	FileUnreadable FileCause = "unreadable"
	FileEmpty      FileCause = "empty"
	FileTruncated  FileCause = "truncated"
)

// DiscoveryError reports a discovery pass that produced no usable
// schemas: the glob matched nothing, or no matched file yielded a
// readable header. It is logged, not returned to clients; an empty
// schema list is a valid response.
type DiscoveryError struct {
	Glob   string
	Reason string
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery for %q: %s", e.Glob, e.Reason)
}

// FileError reports a single member file that could not be used.
// During discovery and publish it is logged and the file skipped;
// remaining files continue.
type FileError struct {
	Path  string
	Cause FileCause
	Err   error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file %s: %s: %v", e.Path, e.Cause, e.Err)
	}
	return fmt.Sprintf("file %s: %s", e.Path, e.Cause)
}

func (e *FileError) Unwrap() error { return e.Err }

// RowError reports a single cell that failed coercion against its
// column's declared type. It never aborts a stream; the row is
// published with Invalid set and this message attached.
type RowError struct {
	Property string
	Value    string
	Type     PropertyType
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: cannot parse '%s' as %s", e.Property, e.Value, e.Type)
}

// ProtocolError reports a malformed request: an empty glob, an
// unrecognized settings token, a schema with no properties. These
// abort the operation before any work starts.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }
