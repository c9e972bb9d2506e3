package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/thatcatcamp/sideload/internal/models"
)

// Deriver computes image metadata and derivative variants after ingest
type Deriver struct {
	Store Store
	Sizes []Size
}

// NewDeriver creates a metadata deriver writing variants into store
func NewDeriver(store Store, sizes []Size) *Deriver {
	return &Deriver{Store: store, Sizes: sizes}
}

// Derive reads the image at srcPath (the readable copy of key) and returns
// its dimensions plus one entry per generated variant. Variants are saved
// next to key in the store. When some variants fail the metadata gathered so
// far is returned together with the joined errors.
func (d *Deriver) Derive(ctx context.Context, srcPath, key string) (*models.AttachmentMetadata, error) {
	img, err := decodeImage(srcPath)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	meta := &models.AttachmentMetadata{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		File:   key,
		Sizes:  map[string]models.DerivativeImage{},
	}
	if info, err := os.Stat(srcPath); err == nil {
		meta.FileSize = info.Size()
	}

	if len(d.Sizes) == 0 {
		return meta, nil
	}

	workDir, err := os.MkdirTemp("", "sideload-derive-*")
	if err != nil {
		return meta, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	dir := path.Dir(key)
	stem := TitleFromFilename(path.Base(key))

	var errs []error
	for _, size := range d.Sizes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		w, h, ok := targetDimensions(meta.Width, meta.Height, size)
		if !ok {
			continue
		}

		name := fmt.Sprintf("%s-%dx%d.jpg", stem, w, h)
		localPath := filepath.Join(workDir, name)
		if err := renderVariant(img, size, w, h, localPath); err != nil {
			errs = append(errs, fmt.Errorf("size %s: %w", size.Name, err))
			continue
		}

		variantKey, err := d.Store.Save(ctx, localPath, dir, name, "image/jpeg")
		if err != nil {
			errs = append(errs, fmt.Errorf("size %s: %w", size.Name, err))
			continue
		}

		meta.Sizes[size.Name] = models.DerivativeImage{
			File:     path.Base(variantKey),
			Width:    w,
			Height:   h,
			MimeType: "image/jpeg",
			URL:      d.Store.URL(variantKey),
		}
	}

	return meta, errors.Join(errs...)
}
