package extractor

import "errors"

// Domain errors surfaced to the protocol layer. Validation errors are
// wrapped with the offending name and the available alternatives.
var (
	// ErrUnknownApp is returned when a requested app is not configured
	ErrUnknownApp = errors.New("unknown app")

	// ErrUnknownSource is returned when an app has no such source
	ErrUnknownSource = errors.New("unknown source")

	// ErrSourceWithoutApp is returned when a source filter is given without an app
	ErrSourceWithoutApp = errors.New("cannot specify source without app")

	// ErrPageNotFound is returned when a converted page does not exist
	ErrPageNotFound = errors.New("page not found")

	// ErrInvalidPath is returned when a page path escapes the source's cache directory
	ErrInvalidPath = errors.New("invalid path: must be within the source's cache directory")

	// ErrIndexingInProgress is returned when a bulk index is already running
	ErrIndexingInProgress = errors.New("another indexing operation is already in progress")

	// ErrSevenZipNotFound is returned when no 7z binary can be located
	ErrSevenZipNotFound = errors.New("7z is required to extract CHM files. Install it with: pacman -S p7zip (Arch) / apt install p7zip-full (Debian) / brew install p7zip (macOS) / winget install 7zip (Windows)")
)
