package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

var disableConfigDir sync.Once

// Renderer wraps pdfcpu for image import and raw image extraction.
type Renderer struct{}

func New() *Renderer {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Renderer{}
}

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ImageToPDF places the image on a single page whose size in points equals
// the image size in pixels. Wider images yield a landscape page.
func (r *Renderer) ImageToPDF(ctx context.Context, image []byte, width, height int) ([]byte, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("image is empty")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: float64(width), Height: float64(height)}
	imp.UserDim = true
	imp.Pos = types.Full
	imp.InpUnit = types.POINTS

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, []io.Reader{bytes.NewReader(image)}, imp, configuration()); err != nil {
		return nil, fmt.Errorf("import image into pdf: %w", err)
	}
	return out.Bytes(), nil
}

// PageImage returns the largest JPEG or PNG image embedded in the given page.
// A page without such images yields a nil image and no error.
func (r *Renderer) PageImage(ctx context.Context, pdf []byte, page int) ([]byte, string, error) {
	if page < 1 {
		return nil, "", fmt.Errorf("page must be positive, got %d", page)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	pages, err := api.ExtractImagesRaw(bytes.NewReader(pdf), []string{strconv.Itoa(page)}, configuration())
	if err != nil {
		return nil, "", fmt.Errorf("extract page images: %w", err)
	}

	var (
		best     *model.Image
		bestArea int
	)
	for _, images := range pages {
		for objNr := range images {
			img := images[objNr]
			if mimeForFileType(img.FileType) == "" {
				continue
			}
			area := img.Width * img.Height
			if best == nil || area > bestArea || (area == bestArea && img.ObjNr < best.ObjNr) {
				best, bestArea = &img, area
			}
		}
	}
	if best == nil {
		return nil, "", nil
	}

	data, err := io.ReadAll(best)
	if err != nil {
		return nil, "", fmt.Errorf("read page image: %w", err)
	}
	return data, mimeForFileType(best.FileType), nil
}

func mimeForFileType(fileType string) string {
	switch fileType {
	case "jpg", "jpeg":
		return domain.MimeJPEG
	case "png":
		return domain.MimePNG
	default:
		return ""
	}
}
