package ports

import (
	"context"

	"torrentcore/internal/domain"
)

// ResumeDataStore persists engine resume-data blobs and the options under
// which each torrent runs, keyed by torrent id.
type ResumeDataStore interface {
	Save(ctx context.Context, id domain.TorrentID, data []byte) error
	SaveOptions(ctx context.Context, id domain.TorrentID, opts domain.Options) error
	Load(ctx context.Context, id domain.TorrentID) ([]byte, error)
	LoadOptions(ctx context.Context, id domain.TorrentID) (domain.Options, error)
	Delete(ctx context.Context, id domain.TorrentID) error
	List(ctx context.Context) ([]domain.TorrentID, error)
}
