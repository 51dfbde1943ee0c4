package library

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pose-browser/internal/media"
)

type fakeConfig struct {
	mu     sync.Mutex
	roots  []string
	images bool
}

func (c *fakeConfig) LibraryRoots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.roots...)
}

func (c *fakeConfig) ImagesEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.images
}

func (c *fakeConfig) AddLibraryRoot(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots = append(c.roots, path)
	return nil
}

func (c *fakeConfig) ClearLibraryRoots() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots = nil
	return nil
}

type resolverFunc func(string) (string, bool)

func (f resolverFunc) Resolve(p string) (string, bool) { return f(p) }

var noImages = resolverFunc(func(string) (string, bool) { return "", false })

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, filepath.FromSlash(r))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func createPNG(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func paths(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Path
	}
	return out
}

func TestFullSync_IndexesSortedVisibleDocuments(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "b.pose", "a.pose", ".hidden.pose", "sub/c.cmp", "notes.txt", "cover.png", "sub/UPPER.POSE")

	l := New(&fakeConfig{roots: []string{lib}}, noImages)
	if !l.FullSync() {
		t.Fatal("FullSync() = false, want true")
	}

	want := []string{
		filepath.Join(lib, "a.pose"),
		filepath.Join(lib, "b.pose"),
		filepath.Join(lib, "sub", "UPPER.POSE"),
		filepath.Join(lib, "sub", "c.cmp"),
	}
	if got := paths(l.Documents()); !reflect.DeepEqual(got, want) {
		t.Errorf("Documents() = %v, want %v", got, want)
	}

	doc, ok := l.Document(filepath.Join(lib, "a.pose"))
	if !ok {
		t.Fatal("Document() lookup failed")
	}
	if doc.Name != "a" || doc.Format != "anamnesis" {
		t.Errorf("document = %+v", doc)
	}

	stats := l.GetStats()
	if stats.FilesScanned != 7 || stats.FoldersScanned != 2 || stats.WalkErrors != 0 {
		t.Errorf("walk stats = %d files, %d folders, %d errors; want 7, 2, 0",
			stats.FilesScanned, stats.FoldersScanned, stats.WalkErrors)
	}
}

func TestFullSync_HiddenDirectoriesAreWalked(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, ".cache/x.pose")

	l := New(&fakeConfig{roots: []string{lib}}, noImages)
	l.FullSync()

	if got := paths(l.Documents()); len(got) != 1 {
		t.Errorf("Documents() = %v, want the file inside the hidden folder", got)
	}
}

func TestFullSync_NoExistingRoot(t *testing.T) {
	tests := []struct {
		name  string
		roots []string
	}{
		{name: "no roots", roots: nil},
		{name: "missing root", roots: []string{filepath.Join(t.TempDir(), "gone")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleared := 0
			l := New(&fakeConfig{roots: tt.roots}, noImages)
			l.OnClear(func() { cleared++ })

			if l.FullSync() {
				t.Error("FullSync() = true, want no-op")
			}
			if cleared != 0 {
				t.Error("no-op sync must not clear state")
			}
		})
	}
}

func TestFullSync_MultipleRoots(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	touch(t, a, "one.pose", "nested/two.cmp")
	touch(t, b, "three.pose")

	// Duplicate and nested roots must not duplicate documents.
	cfg := &fakeConfig{roots: []string{b, a, a, filepath.Join(a, "nested")}}
	l := New(cfg, noImages, WithWalkerConfig(WalkerConfig{NumWorkers: 2, ChannelBuffer: 1}))
	l.FullSync()

	got := paths(l.Documents())
	if len(got) != 3 {
		t.Fatalf("Documents() = %v, want 3 unique documents", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Errorf("Documents() not sorted: %v", got)
		}
	}
}

func TestFullSync_Idempotent(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "pose1.pose", "sub/inner.cmp", "z.pose")
	createPNG(t, filepath.Join(lib, "pose1.png"))

	cfg := &fakeConfig{roots: []string{lib}, images: true}
	l := New(cfg, media.NewResolver(t.TempDir()))

	snapshot := func() map[string]string {
		l.FullSync()
		l.Wait()
		out := map[string]string{}
		for _, d := range l.Documents() {
			img, _ := d.ImagePath()
			out[d.Path] = img
		}
		return out
	}

	first := snapshot()
	second := snapshot()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("syncs differ:\n%v\n%v", first, second)
	}
	if first[filepath.Join(lib, "pose1.pose")] != filepath.Join(lib, "pose1.png") {
		t.Errorf("pose1 image = %q", first[filepath.Join(lib, "pose1.pose")])
	}
	if first[filepath.Join(lib, "sub", "inner.cmp")] != filepath.Join(lib, "pose1.png") {
		t.Errorf("inner.cmp should fall back to the parent image, got %q", first[filepath.Join(lib, "sub", "inner.cmp")])
	}
}

func TestFullSync_ImagesDisabled(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose")

	var calls atomic.Int32
	resolver := resolverFunc(func(string) (string, bool) {
		calls.Add(1)
		return "x.png", true
	})

	l := New(&fakeConfig{roots: []string{lib}}, resolver)
	l.FullSync()
	l.Wait()

	if calls.Load() != 0 {
		t.Errorf("resolver called %d times with images disabled", calls.Load())
	}
}

func TestFullSync_DroppedWhileRunning(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose")

	l := New(&fakeConfig{roots: []string{lib}}, noImages)
	if !l.tryStart(&l.isSyncing, syncDocuments) {
		t.Fatal("could not take guard")
	}
	if l.FullSync() {
		t.Error("FullSync() ran while another sync held the guard")
	}
	l.finish(&l.isSyncing, syncDocuments)

	if !l.FullSync() {
		t.Error("FullSync() did not run after the guard was released")
	}
	if l.IsSyncing() {
		t.Error("guard still held after FullSync returned")
	}
}

func TestImageSync_SingleFlight(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose", "b.pose")

	release := make(chan struct{})
	resolver := resolverFunc(func(string) (string, bool) {
		<-release
		return "", false
	})

	l := New(&fakeConfig{roots: []string{lib}}, resolver)
	l.FullSync()

	if !l.ImageSync() {
		t.Fatal("first ImageSync() = false")
	}
	if !l.IsImageSyncing() {
		t.Error("IsImageSyncing() = false during sync")
	}
	if l.ImageSync() {
		t.Error("second ImageSync() was not dropped")
	}

	close(release)
	l.Wait()

	if l.IsImageSyncing() {
		t.Error("image sync guard not released")
	}
	if !l.ImageSync() {
		t.Error("ImageSync() refused after previous run finished")
	}
	l.Wait()
}

func TestFullSync_DuringImageSyncRecoversImages(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose")

	var blocking atomic.Bool
	blocking.Store(true)
	entered := make(chan struct{})
	release := make(chan struct{})
	resolver := resolverFunc(func(p string) (string, bool) {
		if blocking.CompareAndSwap(true, false) {
			close(entered)
			<-release
		}
		return p + ".png", true
	})

	cfg := &fakeConfig{roots: []string{lib}, images: true}
	l := New(cfg, resolver, WithRefreshInterval(time.Hour))
	l.FullSync()
	<-entered

	// The rebuilt index cannot start its own image pass while the first
	// one is still resolving the old records.
	touch(t, lib, "b.pose")
	if !l.FullSync() {
		t.Fatal("second FullSync() = false")
	}
	close(release)
	l.Wait()

	for _, doc := range l.Documents() {
		if _, ok := doc.ImagePath(); ok {
			t.Errorf("%s resolved by a pass over the old index", doc.Path)
		}
	}

	if !l.RefreshImages(false) {
		t.Fatal("unforced refresh gated after the image pass went stale")
	}
	l.Wait()

	got := paths(l.Documents())
	if len(got) != 2 {
		t.Fatalf("documents = %v, want 2", got)
	}
	for _, doc := range l.Documents() {
		if img, ok := doc.ImagePath(); !ok || img != doc.Path+".png" {
			t.Errorf("%s image = %q, %v", doc.Path, img, ok)
		}
	}

	if l.RefreshImages(false) {
		t.Error("refresh right after a complete pass should be gated")
	}
}

func TestStop_SkipsQueuedDocuments(t *testing.T) {
	lib := t.TempDir()
	const total = 40
	for i := 0; i < total; i++ {
		touch(t, lib, fmt.Sprintf("pose%02d.pose", i))
	}

	var resolved atomic.Int32
	var once sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})
	resolver := resolverFunc(func(p string) (string, bool) {
		once.Do(func() { close(entered) })
		<-release
		resolved.Add(1)
		return p + ".png", true
	})

	l := New(&fakeConfig{roots: []string{lib}, images: true}, resolver)
	l.FullSync()
	<-entered

	l.Stop()
	l.Stop()
	close(release)
	l.Wait()

	// Only documents already handed to a worker finish.
	got := int(resolved.Load())
	if got == 0 || got >= total {
		t.Errorf("resolved %d of %d documents after Stop", got, total)
	}
	if stats := l.GetStats(); stats.DocumentsWithImage != got {
		t.Errorf("DocumentsWithImage = %d, want %d", stats.DocumentsWithImage, got)
	}
	if l.IsImageSyncing() {
		t.Error("image sync guard not released after Stop")
	}
}

func TestImageSync_PanicDoesNotAbortBatch(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose", "bad.pose", "c.pose")

	resolver := resolverFunc(func(p string) (string, bool) {
		if strings.HasSuffix(p, "bad.pose") {
			panic("corrupt file")
		}
		return p + ".png", true
	})

	l := New(&fakeConfig{roots: []string{lib}, images: true}, resolver)
	l.FullSync()
	l.Wait()

	for _, doc := range l.Documents() {
		img, ok := doc.ImagePath()
		if strings.HasSuffix(doc.Path, "bad.pose") {
			if ok {
				t.Errorf("bad.pose got image %q", img)
			}
			continue
		}
		if !ok || img != doc.Path+".png" {
			t.Errorf("%s image = %q, %v", doc.Path, img, ok)
		}
	}
	if l.IsImageSyncing() {
		t.Error("guard not released after panic")
	}
}

type gateFunc func() bool

func (f gateFunc) WaitIfPaused() bool { return f() }

func TestImageSync_MemoryGate(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose", "b.pose")

	var resolved, waited atomic.Int32
	resolver := resolverFunc(func(p string) (string, bool) {
		resolved.Add(1)
		return p + ".png", true
	})

	t.Run("open gate resolves", func(t *testing.T) {
		resolved.Store(0)
		gate := gateFunc(func() bool { waited.Add(1); return true })
		l := New(&fakeConfig{roots: []string{lib}, images: true}, resolver, WithMemoryGate(gate))
		l.FullSync()
		l.Wait()

		if got := resolved.Load(); got != 2 {
			t.Errorf("resolved %d documents, want 2", got)
		}
		if got := waited.Load(); got != 2 {
			t.Errorf("gate consulted %d times, want 2", got)
		}
	})

	t.Run("stopped gate skips without blocking", func(t *testing.T) {
		resolved.Store(0)
		gate := gateFunc(func() bool { return false })
		l := New(&fakeConfig{roots: []string{lib}, images: true}, resolver, WithMemoryGate(gate))
		l.FullSync()
		l.Wait()

		if got := resolved.Load(); got != 0 {
			t.Errorf("resolved %d documents through a closed gate", got)
		}
		if l.IsImageSyncing() {
			t.Error("image sync guard not released")
		}
	})
}

func TestImageSync_LoadsTags(t *testing.T) {
	lib := t.TempDir()
	path := filepath.Join(lib, "a.pose")
	if err := os.WriteFile(path, []byte(`{"Author":"Mira","Tags":["Dance"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New(&fakeConfig{roots: []string{lib}, images: true}, noImages)
	l.FullSync()
	l.Wait()

	doc, _ := l.Document(path)
	if got := doc.Tags(); !reflect.DeepEqual(got, []string{"Dance", "Mira"}) {
		t.Errorf("Tags() = %v", got)
	}
}

func TestAddAndRemoveRoots(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose")

	cfg := &fakeConfig{}
	l := New(cfg, noImages)
	cleared := 0
	l.OnClear(func() { cleared++ })

	if err := l.AddLibraryRoot(""); err == nil {
		t.Error("AddLibraryRoot(\"\") should fail")
	}
	if err := l.AddLibraryRoot(lib); err != nil {
		t.Fatalf("AddLibraryRoot() error = %v", err)
	}
	if len(l.Documents()) != 1 {
		t.Fatalf("AddLibraryRoot() did not sync, documents = %v", paths(l.Documents()))
	}

	if err := l.RemoveAllRoots(); err != nil {
		t.Fatalf("RemoveAllRoots() error = %v", err)
	}
	if len(cfg.LibraryRoots()) != 0 || len(l.Documents()) != 0 {
		t.Error("RemoveAllRoots() left roots or documents behind")
	}
	if cleared != 2 {
		t.Errorf("clear hooks ran %d times, want 2", cleared)
	}
	if got := l.ShortPath(filepath.Join(lib, "a.pose")); got != filepath.Join(lib, "a.pose") {
		t.Errorf("ShortPath() after clear = %q", got)
	}
}

func TestShortPathMatcher(t *testing.T) {
	m := shortPathMatcher([]string{"/lib", "/lib/sub", "/Other(1)"})

	tests := []struct {
		in, want string
	}{
		{in: "/lib/a.pose", want: "/a.pose"},
		{in: "/LIB/a.pose", want: "/a.pose"},
		{in: "/lib/sub/c.cmp", want: "/c.cmp"},
		{in: "/other(1)/x.pose", want: "/x.pose"},
		{in: "/elsewhere/lib/x.pose", want: "/elsewhere/lib/x.pose"},
	}
	for _, tt := range tests {
		if got := m.ReplaceAllLiteralString(tt.in, ""); got != tt.want {
			t.Errorf("strip(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if shortPathMatcher(nil) != nil {
		t.Error("shortPathMatcher(nil) should be nil")
	}
}

func TestSetVisible(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose", "b.pose")

	l := New(&fakeConfig{roots: []string{lib}}, noImages)
	l.FullSync()
	l.SetVisible([]string{filepath.Join(lib, "b.pose")})

	docs, _ := l.prioritized()
	if !docs[0].Visible() || docs[1].Visible() {
		t.Errorf("prioritized() = %v, want visible document first", paths(docs))
	}
}

func TestGetStats(t *testing.T) {
	lib := t.TempDir()
	touch(t, lib, "a.pose", "b.cmp", "c.cmp")

	l := New(&fakeConfig{roots: []string{lib}}, noImages)
	l.FullSync()
	doc, _ := l.Document(filepath.Join(lib, "a.pose"))
	doc.SetImagePath("/img.png")

	stats := l.GetStats()
	if stats.Roots != 1 || stats.TotalDocuments != 3 || stats.AnamnesisPoses != 1 || stats.CMToolPoses != 2 || stats.DocumentsWithImage != 1 {
		t.Errorf("GetStats() = %+v", stats)
	}
}
