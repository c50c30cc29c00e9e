package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.Black)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		img.Set(w/2, y, color.Black)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestImageToPDFUsesImageSizeAsPage(t *testing.T) {
	cases := []struct {
		name          string
		frame         func(t *testing.T, w, h int) []byte
		width, height int
	}{
		{name: "landscape png", frame: encodePNG, width: 640, height: 480},
		{name: "portrait jpeg", frame: encodeJPEG, width: 480, height: 640},
	}

	r := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.ImageToPDF(context.Background(), tc.frame(t, tc.width, tc.height), tc.width, tc.height)
			if err != nil {
				t.Fatalf("ImageToPDF() error = %v", err)
			}

			count, err := api.PageCount(bytes.NewReader(out), configuration())
			if err != nil {
				t.Fatalf("PageCount() error = %v", err)
			}
			if count != 1 {
				t.Fatalf("expected 1 page, got %d", count)
			}
			dims, err := api.PageDims(bytes.NewReader(out), configuration())
			if err != nil {
				t.Fatalf("PageDims() error = %v", err)
			}
			if len(dims) != 1 || dims[0].Width != float64(tc.width) || dims[0].Height != float64(tc.height) {
				t.Fatalf("expected %dx%d page, got %v", tc.width, tc.height, dims)
			}
			if landscape := tc.width > tc.height; dims[0].Landscape() != landscape {
				t.Fatalf("expected landscape=%v for %v", landscape, dims[0])
			}
		})
	}
}

func TestImageToPDFRejectsBadInput(t *testing.T) {
	r := New()
	if _, err := r.ImageToPDF(context.Background(), nil, 10, 10); err == nil {
		t.Fatalf("expected error for empty image")
	}
	if _, err := r.ImageToPDF(context.Background(), []byte{1}, 0, 10); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestPageImageReturnsEmbeddedImage(t *testing.T) {
	r := New()
	doc, err := r.ImageToPDF(context.Background(), encodePNG(t, 40, 60), 40, 60)
	if err != nil {
		t.Fatalf("ImageToPDF() error = %v", err)
	}

	data, mimeType, err := r.PageImage(context.Background(), doc, 1)
	if err != nil {
		t.Fatalf("PageImage() error = %v", err)
	}
	if len(data) == 0 || mimeType == "" {
		t.Fatalf("expected an image, got %d bytes mime=%q", len(data), mimeType)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 60 {
		t.Fatalf("expected 40x60 image, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestMimeForFileType(t *testing.T) {
	if mimeForFileType("jpg") != "image/jpeg" || mimeForFileType("png") != "image/png" || mimeForFileType("tif") != "" {
		t.Fatalf("unexpected mime mapping")
	}
}
