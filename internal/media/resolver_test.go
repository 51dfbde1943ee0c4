package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func posePayload(t *testing.T, image string) string {
	t.Helper()
	return fmt.Sprintf(`{"Author":"someone","Base64Image":%q}`, image)
}

func TestResolve_SiblingImage(t *testing.T) {
	lib := t.TempDir()
	doc := filepath.Join(lib, "pose1.pose")
	writeFile(t, doc, `{"Author":"someone"}`)
	createTestImage(t, filepath.Join(lib, "pose1.png"), 10, 10)

	r := NewResolver(t.TempDir())
	got, ok := r.Resolve(doc)
	if !ok {
		t.Fatal("Resolve() found no image")
	}
	if want := filepath.Join(lib, "pose1.png"); got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_ParentFallback(t *testing.T) {
	lib := t.TempDir()
	doc := filepath.Join(lib, "sub", "c.cmp")
	writeFile(t, doc, `{"Race":"Hyur"}`)
	createTestImage(t, filepath.Join(lib, "cover.jpg"), 10, 10)

	r := NewResolver(t.TempDir())
	candidates := r.Candidates(doc)
	if len(candidates) != 1 {
		t.Fatalf("Candidates() = %v, want one parent image", candidates)
	}
	if candidates[0].Path != filepath.Join(lib, "cover.jpg") || candidates[0].Source != SourceParent {
		t.Errorf("Candidates()[0] = %+v", candidates[0])
	}
}

func TestResolve_SiblingsSuppressParent(t *testing.T) {
	lib := t.TempDir()
	doc := filepath.Join(lib, "sub", "c.cmp")
	writeFile(t, doc, `{}`)
	createTestImage(t, filepath.Join(lib, "sub", "c.png"), 10, 10)
	createTestImage(t, filepath.Join(lib, "cover.jpg"), 10, 10)

	r := NewResolver(t.TempDir())
	paths := r.CandidatePaths(doc)
	if len(paths) != 1 || paths[0] != filepath.Join(lib, "sub", "c.png") {
		t.Errorf("CandidatePaths() = %v", paths)
	}
}

func TestResolve_NoImage(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, lib string) string
	}{
		{
			name: "no images anywhere",
			setup: func(t *testing.T, lib string) string {
				doc := filepath.Join(lib, "a", "b", "x.pose")
				writeFile(t, doc, `{}`)
				writeFile(t, filepath.Join(lib, "a", "b", "notes.txt"), "text")
				return doc
			},
		},
		{
			name: "directory does not exist",
			setup: func(t *testing.T, lib string) string {
				return filepath.Join(lib, "missing", "deeper", "x.pose")
			},
		},
		{
			name: "images only in nested directory",
			setup: func(t *testing.T, lib string) string {
				doc := filepath.Join(lib, "a", "b", "x.pose")
				writeFile(t, doc, `{}`)
				createTestImage(t, filepath.Join(lib, "a", "b", "nested", "img.png"), 4, 4)
				return doc
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.setup(t, t.TempDir())
			r := NewResolver(t.TempDir())
			if got, ok := r.Resolve(doc); ok || got != "" {
				t.Errorf("Resolve() = %q, %v, want no image", got, ok)
			}
		})
	}
}

func TestResolve_EmbeddedFirst(t *testing.T) {
	lib := t.TempDir()
	cache := t.TempDir()
	doc := filepath.Join(lib, "pose1.pose")
	writeFile(t, doc, posePayload(t, encodedPNG(t, 12, 8)))
	createTestImage(t, filepath.Join(lib, "a.png"), 10, 10)
	createTestImage(t, filepath.Join(lib, "b.jpg"), 10, 10)

	r := NewResolver(cache)
	candidates := r.Candidates(doc)
	if len(candidates) != 3 {
		t.Fatalf("Candidates() = %v, want embedded plus two siblings", candidates)
	}

	embedded := candidates[0]
	if embedded.Source != SourceEmbedded {
		t.Fatalf("Candidates()[0].Source = %q, want embedded", embedded.Source)
	}
	if !strings.HasPrefix(embedded.Path, filepath.Join(cache, "embedded")) || filepath.Ext(embedded.Path) != ".png" {
		t.Errorf("embedded path %q not in cache", embedded.Path)
	}
	dims, err := GetImageDimensions(embedded.Path)
	if err != nil {
		t.Fatalf("materialised image unreadable: %v", err)
	}
	if dims.Width != 12 || dims.Height != 8 {
		t.Errorf("materialised image = %dx%d, want 12x8", dims.Width, dims.Height)
	}

	if candidates[1].Path != filepath.Join(lib, "a.png") || candidates[2].Path != filepath.Join(lib, "b.jpg") {
		t.Errorf("siblings = %v, %v", candidates[1], candidates[2])
	}

	got, ok := r.Resolve(doc)
	if !ok || got != embedded.Path {
		t.Errorf("Resolve() = %q, %v, want %q", got, ok, embedded.Path)
	}
}

func TestResolve_EmbeddedDataURI(t *testing.T) {
	lib := t.TempDir()
	doc := filepath.Join(lib, "x.pose")
	writeFile(t, doc, posePayload(t, "data:image/png;base64,"+encodedPNG(t, 5, 5)))

	r := NewResolver(t.TempDir())
	candidates := r.Candidates(doc)
	if len(candidates) != 1 || candidates[0].Source != SourceEmbedded {
		t.Errorf("Candidates() = %v, want one embedded image", candidates)
	}
}

func TestResolve_EmbeddedFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "empty payload", file: "x.pose", content: `{"Base64Image":""}`},
		{name: "invalid base64", file: "x.pose", content: `{"Base64Image":"@@not-base64@@"}`},
		{name: "payload is not an image", file: "x.pose", content: `{"Base64Image":"aGVsbG8="}`},
		{name: "malformed json", file: "x.pose", content: `{"Base64Image": `},
		{name: "format without embedded images", file: "x.cmp", content: `{"Base64Image":"aGVsbG8="}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := t.TempDir()
			doc := filepath.Join(lib, tt.file)
			writeFile(t, doc, tt.content)
			createTestImage(t, filepath.Join(lib, "side.png"), 4, 4)

			r := NewResolver(t.TempDir())
			got, ok := r.Resolve(doc)
			if !ok || got != filepath.Join(lib, "side.png") {
				t.Errorf("Resolve() = %q, %v, want sibling", got, ok)
			}
		})
	}
}

func TestResolve_EmbeddedIsStable(t *testing.T) {
	lib := t.TempDir()
	doc := filepath.Join(lib, "x.pose")
	writeFile(t, doc, posePayload(t, encodedPNG(t, 6, 6)))

	r := NewResolver(t.TempDir())
	first, ok1 := r.Resolve(doc)
	second, ok2 := r.Resolve(doc)
	if !ok1 || !ok2 || first != second {
		t.Errorf("Resolve() not stable: %q, %q", first, second)
	}
}
