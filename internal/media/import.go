package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/thatcatcamp/sideload/internal/models"
	"gorm.io/gorm"
)

// variantName matches the shape of generated derivatives, e.g. cat-150x150.jpg
var variantName = regexp.MustCompile(`^(.+)-\d+x\d+\.jpg$`)

// ImportExistingFiles scans a local store and creates attachment records for
// allow-listed files that have none, e.g. files left behind when a catalog
// insert failed after the copy succeeded. Generated variants are skipped.
// Returns count of imported files.
func ImportExistingFiles(db *gorm.DB, store *LocalStore, uploadedBy uint) (int, error) {
	known, err := knownVariants(db)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(store.Root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if fullPath == store.Root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir // No media directory, nothing to import
			}
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		name := d.Name()
		if !IsAllowed(TypeByExtension(name)) {
			return nil
		}

		rel, err := filepath.Rel(store.Root, fullPath)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		if known[key] || hasOriginalSibling(fullPath) {
			return nil
		}

		var existing int64
		if err := db.Model(&models.Attachment{}).Where("stored_path = ?", key).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to look up %s: %w", key, err)
		}
		if existing > 0 {
			return nil
		}

		// Extension alone is not trusted
		mimeType, err := DetectFile(fullPath)
		if err != nil {
			return nil
		}
		mimeType = Canonical(mimeType)
		if !IsAllowed(mimeType) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		att := models.Attachment{
			GUID:       store.URL(key),
			StoredPath: key,
			MimeType:   mimeType,
			Title:      TitleFromFilename(path.Base(key)),
			Status:     models.AttachmentStatusInherit,
			FileSize:   info.Size(),
			UploadedBy: models.UserRef(uploadedBy),
		}
		if err := db.Create(&att).Error; err != nil {
			return fmt.Errorf("failed to create attachment for %s: %w", key, err)
		}

		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, nil
}

// knownVariants returns the keys of every variant recorded in attachment
// metadata
func knownVariants(db *gorm.DB) (map[string]bool, error) {
	var atts []models.Attachment
	if err := db.Select("id", "stored_path", "metadata").Where("metadata IS NOT NULL").Find(&atts).Error; err != nil {
		return nil, fmt.Errorf("failed to load attachment metadata: %w", err)
	}

	known := map[string]bool{}
	for _, att := range atts {
		if att.Metadata == nil {
			continue
		}
		dir := path.Dir(att.StoredPath)
		for _, size := range att.Metadata.Sizes {
			known[path.Join(dir, size.File)] = true
		}
	}
	return known, nil
}

// hasOriginalSibling reports whether fullPath looks like a variant whose
// original (same stem, any extension) sits next to it. Variants whose
// metadata was never saved are caught here.
func hasOriginalSibling(fullPath string) bool {
	m := variantName.FindStringSubmatch(filepath.Base(fullPath))
	if m == nil {
		return false
	}

	entries, err := os.ReadDir(filepath.Dir(fullPath))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == filepath.Base(fullPath) {
			continue
		}
		if TitleFromFilename(e.Name()) == m[1] && IsAllowed(TypeByExtension(e.Name())) {
			return true
		}
	}
	return false
}
