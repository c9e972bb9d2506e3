package sideload

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/thatcatcamp/sideload/internal/media"
)

// StoredArtifact is a file that now lives in the permanent store
type StoredArtifact struct {
	Key           string
	Filename      string
	PublicURL     string
	ConfirmedMime string
	Size          int64
	// LocalPath is a readable copy for post-ingest processing; for remote
	// stores it is the temporary artifact, valid until cleanup.
	LocalPath string
}

// Ingestor applies upload policy to a temporary artifact and copies it into
// the store under a dated directory.
type Ingestor struct {
	Store       media.Store
	MaxFileSize int64 // 0 disables the size check
	Now         func() time.Time
}

// NewIngestor creates an ingestor for store
func NewIngestor(store media.Store, maxFileSize int64) *Ingestor {
	return &Ingestor{Store: store, MaxFileSize: maxFileSize, Now: time.Now}
}

// Ingest validates art and stores it. It never removes the temporary file.
func (in *Ingestor) Ingest(ctx context.Context, art *TemporaryArtifact) (*StoredArtifact, error) {
	info, err := os.Stat(art.LocalPath)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 || info.Size() != art.Size {
		return nil, newError(KindUploadError, "Specified file failed upload test.", err)
	}

	if in.MaxFileSize > 0 && info.Size() > in.MaxFileSize {
		return nil, newError(KindUploadError,
			fmt.Sprintf("File exceeds the maximum upload size of %d bytes.", in.MaxFileSize), nil)
	}

	filename := media.SanitizeFilename(art.Filename)
	if !media.IsAllowed(media.TypeByExtension(filename)) {
		return nil, newError(KindUploadError, "Sorry, you are not allowed to upload this file type.", nil)
	}

	confirmed, err := media.DetectFile(art.LocalPath)
	if err != nil {
		return nil, newError(KindUploadError, "Could not determine file type.", err)
	}
	confirmed = media.Canonical(confirmed)
	if !media.IsAllowed(confirmed) {
		return nil, newError(KindUploadError, "Sorry, you are not allowed to upload this file type.",
			fmt.Errorf("content detected as %s", confirmed))
	}

	// Content wins over the extension
	if confirmed != media.Canonical(media.TypeByExtension(filename)) {
		filename = media.ReplaceExtension(filename, media.ExtensionFor(confirmed))
	}

	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	dir := now().Format("2006/01")

	key, err := in.Store.Save(ctx, art.LocalPath, dir, filename, confirmed)
	if err != nil {
		return nil, newError(KindUploadError,
			fmt.Sprintf("The uploaded file could not be moved to %s.", dir), err)
	}

	localPath := in.Store.LocalPath(key)
	if localPath == "" {
		localPath = art.LocalPath
	}

	return &StoredArtifact{
		Key:           key,
		Filename:      path.Base(key),
		PublicURL:     in.Store.URL(key),
		ConfirmedMime: confirmed,
		Size:          info.Size(),
		LocalPath:     localPath,
	}, nil
}
