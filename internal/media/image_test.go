package media

import (
	"path/filepath"
	"testing"
)

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		width  int
		height int
	}{
		{name: "Small JPEG", file: "small.jpg", width: 100, height: 100},
		{name: "Wide PNG", file: "wide.png", width: 300, height: 120},
		{name: "Tall PNG", file: "tall.png", width: 90, height: 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			createTestImage(t, path, tt.width, tt.height)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("GetImageDimensions() = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensions_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := GetImageDimensions(filepath.Join(tmpDir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	bogus := filepath.Join(tmpDir, "bogus.png")
	writeFile(t, bogus, "not an image")
	if _, err := GetImageDimensions(bogus); err == nil {
		t.Error("expected error for invalid image data")
	}
}

func TestConstrainedSize(t *testing.T) {
	tests := []struct {
		name                string
		width, height       int
		maxDim, maxPixels   int
		wantWidth, wantHigh int
	}{
		{name: "within limits", width: 800, height: 600, maxDim: 4096, maxPixels: 20_000_000, wantWidth: 800, wantHigh: 600},
		{name: "wide over dimension", width: 8000, height: 2000, maxDim: 4000, maxPixels: 20_000_000, wantWidth: 4000, wantHigh: 1000},
		{name: "tall over dimension", width: 1000, height: 8000, maxDim: 4000, maxPixels: 20_000_000, wantWidth: 500, wantHigh: 4000},
		{name: "over pixel budget", width: 2000, height: 2000, maxDim: 4096, maxPixels: 1_000_000, wantWidth: 500, wantHigh: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := constrainedSize(tt.width, tt.height, tt.maxDim, tt.maxPixels)
			if w != tt.wantWidth || h != tt.wantHigh {
				t.Errorf("constrainedSize() = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHigh)
			}
		})
	}
}

func TestLoadImageConstrained(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	createTestImage(t, path, 400, 200)

	img, err := LoadImageConstrained(path, 100, MaxImagePixels)
	if err != nil {
		t.Fatalf("LoadImageConstrained() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("LoadImageConstrained() = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestTextureSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	createTestImage(t, path, 30, 20)

	size, err := TextureSize(path)
	if err != nil {
		t.Fatalf("TextureSize() error = %v", err)
	}
	if size.X != 30 || size.Y != 20 {
		t.Errorf("TextureSize() = %+v, want 30x20", size)
	}

	if _, err := TextureSize(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing image")
	}
}
