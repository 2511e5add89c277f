package xlgrid

import "errors"

var (
	// ErrClosed is returned by mutations on a closed editor.
	ErrClosed = errors.New("xlgrid: editor is closed")
	// ErrMergeOverlap is returned when a merge region would overlap an existing one.
	ErrMergeOverlap = errors.New("xlgrid: merge region overlaps an existing region")
	// ErrInvalidMerge is returned for merge regions with a span below 1 or a single cell.
	ErrInvalidMerge = errors.New("xlgrid: invalid merge region")
	// ErrUnknownColor is returned when a color name is not in the palette.
	ErrUnknownColor = errors.New("xlgrid: unknown color")
	// ErrOutOfRange is returned for negative coordinates or indexes past the matrix.
	ErrOutOfRange = errors.New("xlgrid: coordinate out of range")
)
