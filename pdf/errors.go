package pdf

import "errors"

var (
	// ErrFileNotFound is returned when no source file matches a stem.
	ErrFileNotFound = errors.New("no matching source files")

	// ErrDestinationExists is returned instead of overwriting a single-page output.
	ErrDestinationExists = errors.New("destination exists")

	// ErrParse is returned for malformed page specifications, file names and content streams.
	ErrParse = errors.New("parse error")

	// ErrIndexOutOfRange is returned when a page index lies outside [1, pageCount].
	ErrIndexOutOfRange = errors.New("page index out of range")

	// ErrDuplicateKey is returned when two files of a group derive the same sort key.
	ErrDuplicateKey = errors.New("duplicate sort key")

	// ErrNotSinglePage is returned when a file to be chained has other than one page.
	ErrNotSinglePage = errors.New("not a single-page document")

	// ErrInvalidResolution is returned for a non-positive DPI or reduction factor.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrNoImage is returned when a page has no embedded image to work with.
	ErrNoImage = errors.New("no embedded image")
)
