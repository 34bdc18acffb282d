// Package assets resolves shader, model and texture files. A file in the
// configured directory overrides the embedded default of the same name.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"framekit/internal/logging"
)

//go:embed data
var embedded embed.FS

// Default returns the embedded asset tree.
func Default() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store reads assets from a directory layered over the embedded defaults
// and keeps what it has read in memory.
type Store struct {
	dir      string
	fallback fs.FS

	mu    sync.Mutex
	cache map[string][]byte
	loads singleflight.Group
}

// NewStore creates a store over dir. An empty dir serves only the embedded
// defaults.
func NewStore(dir string) (*Store, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("assets: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("assets: %s is not a directory", dir)
		}
	}
	return &Store{
		dir:      dir,
		fallback: Default(),
		cache:    make(map[string][]byte),
	}, nil
}

// ReadFile returns the contents of name, a slash-separated path such as
// "shaders/light.vs.wgsl". Concurrent reads of the same name share one load.
func (s *Store) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}

	s.mu.Lock()
	data, ok := s.cache[name]
	s.mu.Unlock()
	if ok {
		return clone(data), nil
	}

	v, err, _ := s.loads.Do(name, func() (any, error) {
		data, err := s.load(name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[name] = data
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]byte)), nil
}

func (s *Store) load(name string) ([]byte, error) {
	if s.dir != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
		if err == nil {
			logging.Logger().Debug("asset loaded from disk", "name", name, "dir", s.dir)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return fs.ReadFile(s.fallback, name)
}

// Open implements fs.FS. Reads through Open bypass the cache.
func (s *Store) Open(name string) (fs.File, error) {
	if s.dir != "" && fs.ValidPath(name) {
		f, err := os.DirFS(s.dir).Open(name)
		if err == nil {
			return f, nil
		}
	}
	return s.fallback.Open(name)
}

// Sub returns the subtree rooted at dir.
func (s *Store) Sub(dir string) fs.FS {
	return subFS{s: s, dir: dir}
}

// Preload reads names concurrently into the cache and returns the first
// failure. Names that loaded stay cached.
func (s *Store) Preload(names ...string) error {
	var g errgroup.Group
	for _, name := range names {
		g.Go(func() error {
			_, err := s.ReadFile(name)
			return err
		})
	}
	return g.Wait()
}

type subFS struct {
	s   *Store
	dir string
}

func (f subFS) Open(name string) (fs.File, error) {
	return f.s.Open(path.Join(f.dir, name))
}

func (f subFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return f.s.ReadFile(path.Join(f.dir, name))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
