package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	ops      []string
	attempts int
	success  int
	failures int
	stale    int
}

func (r *recordingObserver) ObserveOperation(volume, operation string, _ float64, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, volume+":"+operation)
}
func (r *recordingObserver) ObserveRetryAttempt(string, string) { r.attempts++ }
func (r *recordingObserver) ObserveRetrySuccess(string, string) { r.success++ }
func (r *recordingObserver) ObserveRetryFailure(string, string) { r.failures++ }
func (r *recordingObserver) ObserveStaleError(string, string)   { r.stale++ }

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "ESTALE error", err: syscall.ESTALE, want: true},
		{name: "wrapped ESTALE", err: &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, want: true},
		{name: "ENOENT error", err: syscall.ENOENT, want: false},
		{name: "generic error", err: os.ErrNotExist, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryRecoversFromStaleHandle(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	got, err := withRetry("stat", "/lib/a.pose", fastConfig(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, syscall.ESTALE
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Errorf("got %d after %d calls, want 42 after 3", got, calls)
	}
	if obs.stale != 2 || obs.attempts != 2 || obs.success != 1 || obs.failures != 0 {
		t.Errorf("observer counts: %+v", obs)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	obs := &recordingObserver{}
	SetObserver(obs)
	defer SetObserver(nil)

	calls := 0
	_, err := withRetry("readdir", "/lib", fastConfig(), func() (struct{}, error) {
		calls++
		return struct{}{}, syscall.ESTALE
	})
	if !errors.Is(err, syscall.ESTALE) {
		t.Fatalf("expected ESTALE, got %v", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
	if obs.failures != 1 {
		t.Errorf("failures = %d, want 1", obs.failures)
	}
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	_, err := withRetry("read", "/lib/x", fastConfig(), func() ([]byte, error) {
		calls++
		return nil, os.ErrPermission
	})
	if !errors.Is(err, os.ErrPermission) || calls != 1 {
		t.Errorf("err=%v calls=%d, want ErrPermission after 1 call", err, calls)
	}
}

func TestReadHelpers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pose")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := StatWithRetry(path, DefaultRetryConfig()); err != nil {
		t.Errorf("StatWithRetry: %v", err)
	}
	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil || len(entries) != 1 {
		t.Errorf("ReadDirWithRetry: %v (%d entries)", err, len(entries))
	}
	data, err := ReadFileWithRetry(path, DefaultRetryConfig())
	if err != nil || string(data) != "{}" {
		t.Errorf("ReadFileWithRetry: %v %q", err, data)
	}

	if !DirExists(dir) {
		t.Error("DirExists(dir) = false")
	}
	if DirExists(path) {
		t.Error("DirExists(file) = true")
	}
	if DirExists(filepath.Join(dir, "missing")) {
		t.Error("DirExists(missing) = true")
	}
}

func TestVolumeResolver(t *testing.T) {
	vr := NewVolumeResolver(map[string][]string{
		"library": {"/poses", "/mnt/share/poses"},
		"cache":   {"/poses/cache"},
	})

	tests := map[string]string{
		"/poses/a.pose":            "library",
		"/poses":                   "library",
		"/poses/cache/e.png":       "cache",
		"/mnt/share/poses/x/y.cmp": "library",
		"/posesX/a.pose":           "unknown",
		"/other":                   "unknown",
	}
	for path, want := range tests {
		if got := vr.Resolve(path); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", path, got, want)
		}
	}

	var nilResolver *VolumeResolver
	if got := nilResolver.Resolve("/poses"); got != "unknown" {
		t.Errorf("nil resolver = %q", got)
	}
}
