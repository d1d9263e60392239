package run

import (
	"context"
	"errors"
)

var (
	ErrLogNotFound    = errors.New("log not found")
	ErrArchiveExists  = errors.New("archive already exists")
	ErrArchiveMissing = errors.New("archive not found")
)

// LogStore keeps one growing live log per check id plus immutable compressed archives.
type LogStore interface {
	Append(ctx context.Context, logID string, line []byte) error
	// ListLive returns ids of uncompressed logs only.
	ListLive(ctx context.Context) ([]string, error)
	ListArchives(ctx context.Context) ([]string, error)
	Compress(ctx context.Context, logID, archiveID string) error
	Decompress(ctx context.Context, archiveID string) ([]byte, error)
	Truncate(ctx context.Context, logID string) error
}
