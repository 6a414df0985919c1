package storage

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrUnreachable       = errors.New("storage backend unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrChunkOrder        = errors.New("chunk indexes must be contiguous from 0")
	ErrUnknownBackend    = errors.New("unknown storage backend")
)
