package ollama

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// expressionInputSize is the longer side of the face crop sent for classification.
const expressionInputSize = 224

// maxFramePixels bounds the decoded frame size regardless of the upload size.
const maxFramePixels = 4096 * 4096

var (
	errEmptyCrop     = errors.New("face box does not overlap the frame")
	errFrameTooLarge = errors.New("frame dimensions too large")
)

func decodeFrame(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("failed to decode frame: empty image")
	}
	if cfg.Width > maxFramePixels/cfg.Height {
		return nil, fmt.Errorf("%w: %dx%d", errFrameTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("failed to decode frame: empty image")
	}
	return img, nil
}

// fitWithin scales img so its longer side equals maxSize, keeping the aspect ratio.
func fitWithin(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = max(1, int(float64(height)*float64(maxSize)/float64(width)))
	} else {
		newHeight = maxSize
		newWidth = max(1, int(float64(width)*float64(maxSize)/float64(height)))
	}
	if newWidth == width && newHeight == height {
		return img
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// cropBox cuts the normalized box out of img.
func cropBox(img image.Image, box domain.Box) (image.Image, error) {
	box = box.Clamp()
	bounds := img.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	rect := image.Rect(
		bounds.Min.X+int(math.Round(box.X*w)),
		bounds.Min.Y+int(math.Round(box.Y*h)),
		bounds.Min.X+int(math.Round((box.X+box.Width)*w)),
		bounds.Min.Y+int(math.Round((box.Y+box.Height)*h)),
	).Intersect(bounds)
	if rect.Empty() {
		return nil, errEmptyCrop
	}

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out, nil
}

func encodeBase64JPEG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode frame: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
