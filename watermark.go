package imagesource

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	xdraw "golang.org/x/image/draw"
)

const (
	// watermarkScale is the watermark width as a fraction of the base
	// image width.
	watermarkScale = 5

	// watermarkMargin is the pixel inset from the bottom-right corner.
	watermarkMargin = 12

	jpegQuality = 90
)

// applyWatermark composites the configured watermark asset onto the
// bottom-right corner of the image in data and re-encodes it with the same
// format. Every failure (missing asset, undecodable image, encode error)
// is non-fatal: the original bytes are returned and the reason is logged.
func (cfg *Config) applyWatermark(data []byte, mimeType string) []byte {
	if cfg.WatermarkPath == "" {
		slog.Warn("imagesource: watermark requested but no asset configured")
		return data
	}

	mark, err := loadWatermark(cfg.WatermarkPath)
	if err != nil {
		slog.Warn("imagesource: watermark asset unavailable", "path", cfg.WatermarkPath, "error", err.Error())
		return data
	}

	base, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("imagesource: cannot decode image for watermarking", "error", err.Error())
		return data
	}

	out := compositeWatermark(base, mark)

	encoded, err := encodeImage(out, mimeType)
	if err != nil {
		slog.Warn("imagesource: watermarked image encode failed", "mime", mimeType, "error", err.Error())
		return data
	}
	return encoded
}

// loadWatermark reads and decodes the watermark asset.
func loadWatermark(path string) (image.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mark, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return mark, nil
}

// compositeWatermark draws mark over base at the bottom-right corner,
// scaled to watermarkScale-th of the base width.
func compositeWatermark(base, mark image.Image) *image.RGBA {
	bounds := base.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, base, bounds.Min, draw.Src)

	markW := bounds.Dx() / watermarkScale
	if markW < 1 {
		markW = 1
	}
	markH := markW * mark.Bounds().Dy() / max(mark.Bounds().Dx(), 1)
	if markH < 1 {
		markH = 1
	}

	target := image.Rect(
		bounds.Max.X-markW-watermarkMargin,
		bounds.Max.Y-markH-watermarkMargin,
		bounds.Max.X-watermarkMargin,
		bounds.Max.Y-watermarkMargin,
	)
	xdraw.BiLinear.Scale(out, target, mark, mark.Bounds(), xdraw.Over, nil)

	return out
}

// encodeImage serializes img to the format implied by mimeType.
// JPEG for "image/jpeg", PNG for everything else (webp and gif sources are
// re-encoded losslessly as PNG since the stdlib has no encoders for them).
func encodeImage(img image.Image, mimeType string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mimeType {
	case "image/jpeg", "image/jpg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
