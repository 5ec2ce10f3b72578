package locations

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FileStore is a Backend kept in a YAML file with a top-level "business" or
// "locations" key.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Read(context.Context) (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return Source{}, eris.Wrapf(err, "locations: read %s", f.path)
	}
	var src Source
	if err := yaml.Unmarshal(data, &src); err != nil {
		return Source{}, eris.Wrapf(err, "locations: parse %s", f.path)
	}
	return src, nil
}

// Write replaces the file atomically: the new content is written to a
// temporary file in the same directory and renamed over the original.
func (f *FileStore) Write(_ context.Context, src Source) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(src); err != nil {
		return eris.Wrap(err, "locations: encode")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "locations: encode")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".locations-*.yaml")
	if err != nil {
		return eris.Wrap(err, "locations: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "locations: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "locations: close temp file")
	}
	if info, err := os.Stat(f.path); err == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	return eris.Wrapf(os.Rename(tmp.Name(), f.path), "locations: replace %s", f.path)
}

// MemoryBackend keeps a Source in memory.
type MemoryBackend struct {
	mu     sync.Mutex
	src    Source
	writes int
}

func NewMemoryBackend(src Source) *MemoryBackend {
	return &MemoryBackend{src: src}
}

func (m *MemoryBackend) Read(context.Context) (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSource(m.src), nil
}

func (m *MemoryBackend) Write(_ context.Context, src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.src = cloneSource(src)
	m.writes++
	return nil
}

// Writes reports how many times the source has been replaced.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func cloneSource(src Source) Source {
	out := Source{}
	if src.Single != nil {
		b := *src.Single
		b.Latitude, b.Longitude = cloneFloat(b.Latitude), cloneFloat(b.Longitude)
		out.Single = &b
	}
	if src.Entities != nil {
		out.Entities = make([]Entity, len(src.Entities))
		for i, e := range src.Entities {
			e.Latitude, e.Longitude = cloneFloat(e.Latitude), cloneFloat(e.Longitude)
			out.Entities[i] = e
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
