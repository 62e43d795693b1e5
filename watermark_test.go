package imagesource

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompositeWatermarkCorner(t *testing.T) {
	t.Parallel()

	base := solidImage(100, 100, color.RGBA{B: 255, A: 255})
	mark := solidImage(20, 20, color.RGBA{R: 255, A: 255})

	out := compositeWatermark(base, mark)

	// watermarkScale of a 100px base gives a 20px mark inset by the margin.
	r, _, _, _ := out.At(100-watermarkMargin-2, 100-watermarkMargin-2).RGBA()
	if r == 0 {
		t.Error("no watermark at bottom-right corner")
	}
	r, _, b, _ := out.At(2, 2).RGBA()
	if r != 0 || b == 0 {
		t.Error("watermark leaked into top-left corner")
	}
}

func TestCompositeWatermarkTinyBase(t *testing.T) {
	t.Parallel()

	// A base smaller than the margin must not panic; the scaled target
	// rectangle just falls outside the bounds.
	base := solidImage(4, 4, color.RGBA{A: 255})
	mark := solidImage(20, 20, color.RGBA{R: 255, A: 255})

	out := compositeWatermark(base, mark)
	if out.Bounds() != base.Bounds() {
		t.Errorf("output bounds = %v, want %v", out.Bounds(), base.Bounds())
	}
}

func TestEncodeImageFormats(t *testing.T) {
	t.Parallel()

	img := solidImage(8, 8, color.RGBA{G: 255, A: 255})

	tests := []struct {
		name   string
		mime   string
		decode func([]byte) error
	}{
		{
			name: "jpeg",
			mime: "image/jpeg",
			decode: func(b []byte) error {
				_, err := jpeg.Decode(bytes.NewReader(b))
				return err
			},
		},
		{
			name: "png",
			mime: "image/png",
			decode: func(b []byte) error {
				_, err := png.Decode(bytes.NewReader(b))
				return err
			},
		},
		{
			name: "unknown mime falls back to png",
			mime: "image/webp",
			decode: func(b []byte) error {
				_, err := png.Decode(bytes.NewReader(b))
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			encoded, err := encodeImage(img, tc.mime)
			if err != nil {
				t.Fatalf("encodeImage(%q) returned error: %v", tc.mime, err)
			}
			if err := tc.decode(encoded); err != nil {
				t.Errorf("encodeImage(%q) output does not decode: %v", tc.mime, err)
			}
		})
	}
}

func TestApplyWatermarkNoAssetConfigured(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	original := []byte("original bytes")

	if got := cfg.applyWatermark(original, "image/png"); !bytes.Equal(got, original) {
		t.Error("applyWatermark without an asset altered the bytes")
	}
}

func TestApplyWatermarkUndecodableBase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	markPath := dir + "/mark.png"
	writePNG(t, markPath, 8, 8, color.RGBA{R: 255, A: 255})

	cfg := &Config{WatermarkPath: markPath}
	original := []byte("definitely not an image")

	if got := cfg.applyWatermark(original, "image/png"); !bytes.Equal(got, original) {
		t.Error("applyWatermark with undecodable base altered the bytes")
	}
}
