package common

// Error is a constant error value; callers match it with errors.Is.
type Error string

func (err Error) Error() string { return string(err) }

const (
	ErrInvalidConfig   Error = "invalid configuration"
	ErrOutOfRange      Error = "index out of range"
	ErrNotFound        Error = "not found"
	ErrDuplicateName   Error = "name already exists"
	ErrDirectoryFull   Error = "directory full"
	ErrProtectedEntry  Error = "protected directory entry"
	ErrNoFreeInodes    Error = "no free inodes"
	ErrNoFreeBlocks    Error = "no free blocks"
	ErrTruncatedImage  Error = "truncated image"
	ErrIOFailure       Error = "i/o failure"
	ErrInvalidBitValue Error = "bit value must be 0 or 1"

	ErrCorruptImage Error = "corrupt image"
	ErrNameTooLong  Error = "name too long"
	ErrInvalidName  Error = "invalid name"
	ErrNotDir       Error = "not a directory"
	ErrIsDir        Error = "is a directory"
	ErrNotEmpty     Error = "directory not empty"
	ErrFileTooLarge Error = "file too large"
	ErrTooManyLinks Error = "too many levels of symbolic links"
	ErrLocked       Error = "image is locked by another process"
)
