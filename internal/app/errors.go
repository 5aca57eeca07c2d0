package app

import "errors"

var (
	// ErrInvalidURL rejects malformed ingestion URLs before any I/O happens.
	ErrInvalidURL = errors.New("invalid url")
	// ErrEmptyMessage rejects blank questions before any I/O happens.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrExtraction covers fetch failures, non-success responses and sources
	// that yield no usable text. Nothing has been written when it is returned.
	ErrExtraction = errors.New("content extraction failed")
	// ErrPartialWrite reports an ingestion that aborted after earlier batches
	// were already stored, leaving the manual with a truncated chunk set.
	ErrPartialWrite = errors.New("ingestion partially applied")
)
