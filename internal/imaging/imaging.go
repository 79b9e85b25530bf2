// Package imaging decodes page images and cuts padded segment crops.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"lekha/internal/domain"
)

const (
	padXRatio = 0.1
	padYRatio = 0.5
	minPad    = 2
)

// Dimensions returns the pixel size of an encoded image without decoding
// the pixel data.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// CropBounds pads box by 10% of its width and 50% of its height, at least
// two pixels each way, and clamps the result to the page.
func CropBounds(box domain.BBox, pageWidth, pageHeight int) image.Rectangle {
	w := max(box.Width, 1)
	h := max(box.Height, 1)
	padX := max(int(float64(w)*padXRatio), minPad)
	padY := max(int(float64(h)*padYRatio), minPad)

	rect := image.Rect(box.Left-padX, box.Top-padY, box.Left+w+padX, box.Top+h+padY)
	rect = rect.Intersect(image.Rect(0, 0, pageWidth, pageHeight))
	if rect.Empty() {
		// A box outside the page still yields a one pixel crop at its corner.
		x := min(max(box.Left, 0), max(pageWidth-1, 0))
		y := min(max(box.Top, 0), max(pageHeight-1, 0))
		return image.Rect(x, y, x+1, y+1)
	}
	return rect
}

// Crop decodes a page image and returns the padded crop of box as PNG.
func Crop(data []byte, box domain.BBox) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode page image: %w", err)
	}
	bounds := img.Bounds()
	rect := CropBounds(box, bounds.Dx(), bounds.Dy()).Add(bounds.Min)

	var cropped image.Image
	if sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	}); ok {
		cropped = sub.SubImage(rect)
	} else {
		dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Copy(dst, image.Point{}, img, rect, draw.Src, nil)
		cropped = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}

// PlaceholderPNG returns a blank image sized to a padded box, served when
// the page image is missing or undecodable.
func PlaceholderPNG(box domain.BBox) []byte {
	w := max(box.Width, 1) + 2*max(int(float64(max(box.Width, 1))*padXRatio), minPad)
	h := max(box.Height, 1) + 2*max(int(float64(max(box.Height, 1))*padYRatio), minPad)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
