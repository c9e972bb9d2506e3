package media

import (
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Size is a named derivative size. Crop sizes are center-cropped to the exact
// box; other sizes are scaled to fit inside it.
type Size struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

// ParseSizes parses size specs of the form "name=WxH" or "name=WxH:crop"
func ParseSizes(specs []string) ([]Size, error) {
	sizes := make([]Size, 0, len(specs))
	for _, raw := range specs {
		name, dims, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid size %q: expected name=WxH", raw)
		}

		dims, mode, _ := strings.Cut(dims, ":")
		ws, hs, ok := strings.Cut(dims, "x")
		if !ok {
			return nil, fmt.Errorf("invalid size %q: expected name=WxH", raw)
		}
		w, err := strconv.Atoi(ws)
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("invalid width in size %q", raw)
		}
		h, err := strconv.Atoi(hs)
		if err != nil || h <= 0 {
			return nil, fmt.Errorf("invalid height in size %q", raw)
		}
		if mode != "" && mode != "crop" {
			return nil, fmt.Errorf("invalid mode %q in size %q", mode, raw)
		}

		sizes = append(sizes, Size{Name: name, Width: w, Height: h, Crop: mode == "crop"})
	}
	return sizes, nil
}

// renderVariant scales img to w x h, center-cropping for crop sizes, and
// writes it to dstPath as JPEG
func renderVariant(img image.Image, size Size, w, h int, dstPath string) error {
	variant := fitScale(img, w, h)
	if size.Crop {
		variant = cropScale(img, w, h)
	}
	return saveJPEG(variant, dstPath)
}

// decodeImage opens and decodes an image file
func decodeImage(srcPath string) (image.Image, error) {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}
	defer srcFile.Close()

	img, _, err := image.Decode(srcFile)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// targetDimensions returns the output size of a derivative, or ok == false
// when the source already fits inside the box and no variant is needed.
func targetDimensions(srcWidth, srcHeight int, size Size) (int, int, bool) {
	if srcWidth <= size.Width && srcHeight <= size.Height {
		return 0, 0, false
	}

	if size.Crop {
		return min(size.Width, srcWidth), min(size.Height, srcHeight), true
	}

	scale := math.Min(float64(size.Width)/float64(srcWidth), float64(size.Height)/float64(srcHeight))
	w := max(1, int(math.Round(float64(srcWidth)*scale)))
	h := max(1, int(math.Round(float64(srcHeight)*scale)))
	return w, h, true
}

// cropScale center-crops img to the target aspect ratio and scales it
func cropScale(img image.Image, width, height int) *image.RGBA {
	// Calculate center crop rectangle
	srcBounds := img.Bounds()
	srcWidth := srcBounds.Dx()
	srcHeight := srcBounds.Dy()

	// Calculate aspect ratios
	srcAspect := float64(srcWidth) / float64(srcHeight)
	dstAspect := float64(width) / float64(height)

	var cropRect image.Rectangle
	if srcAspect > dstAspect {
		// Source is wider - crop width
		newWidth := int(float64(srcHeight) * dstAspect)
		x := (srcWidth - newWidth) / 2
		cropRect = image.Rect(x, 0, x+newWidth, srcHeight)
	} else {
		// Source is taller - crop height
		newHeight := int(float64(srcWidth) / dstAspect)
		y := (srcHeight - newHeight) / 2
		cropRect = image.Rect(0, y, srcWidth, y+newHeight)
	}

	return scaleInto(img, cropRect.Add(srcBounds.Min), width, height)
}

// fitScale scales the whole image to width x height
func fitScale(img image.Image, width, height int) *image.RGBA {
	return scaleInto(img, img.Bounds(), width, height)
}

func scaleInto(img image.Image, srcRect image.Rectangle, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; transparent areas render on white
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(out, out.Bounds(), img, srcRect, draw.Over, nil)
	return out
}

// saveJPEG writes img to dstPath, creating parent directories
func saveJPEG(img image.Image, dstPath string) error {
	// Create destination directory if needed
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer dstFile.Close()

	// Always save as JPEG for consistent format
	if err := jpeg.Encode(dstFile, img, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return nil
}
