package converter

import "github.com/pkg/errors"

// Error kinds returned by Convert. Test with errors.Is; the messages carry the
// offending path or value.
var (
	// ErrInvalidArgument reports empty paths, non-positive sizes or unknown options.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInputNotFound reports a missing input or one that is not a regular file.
	ErrInputNotFound = errors.New("input file does not exist")
	// ErrInputEmpty reports a zero-length input file.
	ErrInputEmpty = errors.New("input file is empty")
	// ErrDecode reports that no decode strategy could read the input.
	ErrDecode = errors.New("unreadable or corrupt image")
	// ErrEncode reports that the PNG could not be produced or written.
	ErrEncode = errors.New("failed to save image as PNG")
	// ErrOutputOutsideWorkdir is returned under PolicyReject when the output path
	// leaves the working directory.
	ErrOutputOutsideWorkdir = errors.New("output path is outside the working directory")
)
