package assets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func cached(s *Store, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[name]
	return ok
}

func TestDefaultsAreEmbedded(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"shaders/color.vs.wgsl", "shaders/color.ps.wgsl",
		"shaders/texture.vs.wgsl", "shaders/texture.ps.wgsl",
		"shaders/light.vs.wgsl", "shaders/light.ps.wgsl",
		"models/cube.txt", "textures/checker.tga",
	} {
		data, err := s.ReadFile(name)
		if err != nil || len(data) == 0 {
			t.Errorf("ReadFile(%s) = %d bytes, %v", name, len(data), err)
		}
	}
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "shaders"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shaders", "color.ps.wgsl"), []byte("override"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := fs.ReadFile(s.Sub("shaders"), "color.ps.wgsl")
	if err != nil || string(got) != "override" {
		t.Errorf("override = %q, %v", got, err)
	}
	if !cached(s, "shaders/color.ps.wgsl") {
		t.Error("read through Sub was not cached")
	}
	// Files the directory lacks still come from the defaults.
	if _, err := fs.ReadFile(s.Sub("shaders"), "light.vs.wgsl"); err != nil {
		t.Errorf("fallback read: %v", err)
	}
}

func TestMissing(t *testing.T) {
	s, _ := NewStore("")
	if _, err := s.ReadFile("shaders/nope.wgsl"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
	if _, err := s.ReadFile("../escape"); err == nil {
		t.Error("invalid path accepted")
	}
}

func TestNewStoreRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(f); err == nil {
		t.Error("NewStore(file) succeeded")
	}
}

func TestPreload(t *testing.T) {
	s, _ := NewStore("")
	if err := s.Preload("models/cube.txt", "textures/checker.tga"); err != nil {
		t.Fatal(err)
	}
	if !cached(s, "models/cube.txt") || !cached(s, "textures/checker.tga") {
		t.Error("preloaded files not cached")
	}
	if err := s.Preload("models/cube.txt", "missing.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Preload err = %v", err)
	}
}

type countingFS struct {
	fs.FS
	mu    sync.Mutex
	reads map[string]int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.reads[name]++
	c.mu.Unlock()
	return c.FS.Open(name)
}

func TestLoadsOnce(t *testing.T) {
	s, _ := NewStore("")
	counter := &countingFS{FS: s.fallback, reads: map[string]int{}}
	s.fallback = counter

	names := make([]string, 16)
	for i := range names {
		names[i] = "textures/checker.tga"
	}
	if err := s.Preload(names...); err != nil {
		t.Fatal(err)
	}
	if !cached(s, "textures/checker.tga") {
		t.Error("texture not cached")
	}
	loads := counter.reads["textures/checker.tga"]
	if _, err := s.ReadFile("textures/checker.tga"); err != nil {
		t.Fatal(err)
	}
	if loads == 0 || counter.reads["textures/checker.tga"] != loads {
		t.Errorf("reads = %d then %d; a cached file was loaded again", loads, counter.reads["textures/checker.tga"])
	}
}

func TestReturnedBytesAreCopies(t *testing.T) {
	s, _ := NewStore("")
	a, _ := s.ReadFile("models/cube.txt")
	a[0] = 'X'
	b, _ := s.ReadFile("models/cube.txt")
	if b[0] == 'X' {
		t.Error("cache shared with caller")
	}
}
