package media

import (
	"fmt"
	"image"
	"os"

	"pose-browser/internal/geometry"
	"pose-browser/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // embedded payloads are sometimes WebP
)

const (
	// MaxImageDimension is the maximum width or height we'll process.
	// Larger previews are downscaled first.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll process.
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// LoadImageConstrained loads an image, downscaling if it exceeds size limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		logging.Debug("Could not get image dimensions for %s: %v, loading unconstrained", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	width, height := constrainedSize(dimensions.Width, dimensions.Height, maxDimension, maxPixels)
	if width == dimensions.Width && height == dimensions.Height {
		return img, nil
	}

	logging.Info("Constraining large image %s from %dx%d to %dx%d",
		path, dimensions.Width, dimensions.Height, width, height)
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// constrainedSize caps the longest side at maxDimension and the area at
// maxPixels, keeping aspect.
func constrainedSize(width, height, maxDimension, maxPixels int) (int, int) {
	targetWidth, targetHeight := width, height

	if width > maxDimension || height > maxDimension {
		if width > height {
			targetWidth = maxDimension
			targetHeight = height * maxDimension / width
		} else {
			targetHeight = maxDimension
			targetWidth = width * maxDimension / height
		}
	}

	if pixels := targetWidth * targetHeight; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		targetWidth = int(float64(targetWidth) * scale)
		targetHeight = int(float64(targetHeight) * scale)
	}

	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}
	return targetWidth, targetHeight
}

// TextureSize returns an image's pixel size as a geometry vector, for the
// thumbnail and viewer sizing math.
func TextureSize(path string) (geometry.Vec2, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		return geometry.Vec2{}, err
	}
	return geometry.Vec2{X: float64(dims.Width), Y: float64(dims.Height)}, nil
}
