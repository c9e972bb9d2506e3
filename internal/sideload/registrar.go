package sideload

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/thatcatcamp/sideload/internal/media"
	"github.com/thatcatcamp/sideload/internal/models"
)

// Registrar records stored artifacts in the attachment catalog
type Registrar struct {
	DB      *gorm.DB
	Deriver *media.Deriver // nil skips metadata derivation
	Logger  *slog.Logger
}

// Register inserts the catalog record for stored. For images it then derives
// metadata; derivation problems are logged and the record is still returned.
// The boolean reports whether metadata was persisted.
func (r *Registrar) Register(ctx context.Context, stored *StoredArtifact, uploadedBy uint, sourceURL string) (*models.Attachment, bool, error) {
	att := &models.Attachment{
		GUID:       stored.PublicURL,
		StoredPath: stored.Key,
		MimeType:   stored.ConfirmedMime,
		Title:      media.TitleFromFilename(stored.Filename),
		Content:    "",
		Status:     models.AttachmentStatusInherit,
		SourceURL:  sourceURL,
		FileSize:   stored.Size,
		UploadedBy: models.UserRef(uploadedBy),
	}

	if err := r.DB.WithContext(ctx).Create(att).Error; err != nil {
		return nil, false, newError(KindAttachmentError, "Error inserting attachment.", err)
	}

	if !media.IsImage(stored.ConfirmedMime) || r.Deriver == nil {
		return att, false, nil
	}

	meta, err := r.Deriver.Derive(ctx, stored.LocalPath, stored.Key)
	if err != nil {
		r.logger().Warn("Metadata derivation failed", "attachment_id", att.ID, "error", err)
	}
	if meta == nil {
		return att, false, nil
	}

	if err := r.DB.WithContext(ctx).Model(att).Select("Metadata").Updates(&models.Attachment{Metadata: meta}).Error; err != nil {
		r.logger().Warn("Failed to save attachment metadata", "attachment_id", att.ID, "error", err)
		return att, false, nil
	}
	att.Metadata = meta

	return att, true, nil
}

func (r *Registrar) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}
