package settings

import "errors"

var (
	// ErrReadFromDisk means the backing file exists but could not be read.
	ErrReadFromDisk = errors.New("failed to open and read config file on disk")
	// ErrWriteToDisk means the backing file could not be created or written.
	ErrWriteToDisk = errors.New("failed to write config file to disk")
	// ErrDecode means the backing file was read but its contents are invalid.
	ErrDecode = errors.New("failed to decode config file")
	// ErrEncode means the value could not be serialized.
	ErrEncode = errors.New("failed to encode config file")
)
