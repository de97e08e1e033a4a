package storage

import "errors"

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

// Markers and separators of the persisted text format.
const (
	tableOpenPrefix = "[TABLE:"
	tableOpenSuffix = "]"
	tableClose      = "[END_TABLE]"
	fieldSep        = ","
)

var (
	ErrStorageIO = errors.New("storage: I/O error")
)
