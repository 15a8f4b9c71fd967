package pool

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/padstack"
)

// ManifestName is the pool manifest file at the root of a pool directory.
const ManifestName = "pool.toml"

// Manifest describes the layout of a pool directory.
type Manifest struct {
	Name      string `toml:"name"`
	Padstacks string `toml:"padstacks"`
	Packages  string `toml:"packages"`
}

func defaultManifest() Manifest {
	return Manifest{Padstacks: "padstacks", Packages: "packages"}
}

// ReadManifest reads root/pool.toml. A missing manifest yields the default
// layout.
func ReadManifest(root string) (Manifest, error) {
	m := defaultManifest()
	data, err := os.ReadFile(filepath.Join(root, ManifestName))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("pool: %w", err)
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("pool: %s: %w", ManifestName, err)
	}
	if m.Padstacks == "" {
		m.Padstacks = "padstacks"
	}
	if m.Packages == "" {
		m.Packages = "packages"
	}
	return m, nil
}

// WriteManifest writes m to root/pool.toml.
func WriteManifest(root string, m Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	return os.WriteFile(filepath.Join(root, ManifestName), data, 0o644)
}

// Dir is a pool backed by a directory of JSON documents. Documents are
// indexed by id when the pool is opened and parsed on first use.
type Dir struct {
	Root     string
	Manifest Manifest

	mu            sync.RWMutex
	padstackPaths map[ident.ID]string
	packagePaths  map[ident.ID]string
	byPath        map[string]ident.ID
	padstacks     map[ident.ID]*padstack.Padstack
	packages      map[ident.ID]*footprint.Package

	watcher *watcher
}

// OpenDir indexes the pool rooted at root.
func OpenDir(root string) (*Dir, error) {
	m, err := ReadManifest(root)
	if err != nil {
		return nil, err
	}
	d := &Dir{
		Root:          root,
		Manifest:      m,
		padstackPaths: make(map[ident.ID]string),
		packagePaths:  make(map[ident.ID]string),
		byPath:        make(map[string]ident.ID),
		padstacks:     make(map[ident.ID]*padstack.Padstack),
		packages:      make(map[ident.ID]*footprint.Package),
	}
	if err := d.scan(d.padstackDir(), "padstack", d.padstackPaths); err != nil {
		return nil, err
	}
	if err := d.scan(d.packageDir(), "package", d.packagePaths); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dir) padstackDir() string { return filepath.Join(d.Root, d.Manifest.Padstacks) }
func (d *Dir) packageDir() string  { return filepath.Join(d.Root, d.Manifest.Packages) }

// header is the part of a document needed to index it.
type header struct {
	UUID ident.ID `json:"uuid"`
	Type string   `json:"type"`
}

func readHeader(path string) (header, error) {
	var h header
	data, err := os.ReadFile(path)
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

func isDocument(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func (d *Dir) scan(root, kind string, paths map[ident.ID]string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(root, func(path string, e fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if e.IsDir() || !isDocument(path) {
			return nil
		}
		h, err := readHeader(path)
		if err != nil {
			return fmt.Errorf("pool: %w", err)
		}
		if h.Type != "" && h.Type != kind {
			slog.Debug("pool: skipping document", "path", path, "type", h.Type)
			return nil
		}
		if prev, ok := paths[h.UUID]; ok {
			return fmt.Errorf("pool: %s %s defined by both %s and %s", kind, h.UUID, prev, path)
		}
		paths[h.UUID] = path
		d.byPath[path] = h.UUID
		return nil
	})
}

// GetPadstack implements footprint.Pool.
func (d *Dir) GetPadstack(id ident.ID) (*padstack.Padstack, error) {
	d.mu.RLock()
	ps, cached := d.padstacks[id]
	path, known := d.padstackPaths[id]
	d.mu.RUnlock()
	if cached {
		return ps.Clone(), nil
	}
	if !known {
		return nil, notFound("padstack", id)
	}

	ps, err := padstack.Load(path)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	d.mu.Lock()
	d.padstacks[id] = ps
	d.mu.Unlock()
	return ps.Clone(), nil
}

// GetPackage implements footprint.Pool. Alternates are resolved through d; a
// chain of alternates that loops back is an error.
func (d *Dir) GetPackage(id ident.ID) (*footprint.Package, error) {
	return d.getPackage(id, make(map[ident.ID]bool))
}

func (d *Dir) getPackage(id ident.ID, visiting map[ident.ID]bool) (*footprint.Package, error) {
	d.mu.RLock()
	p, cached := d.packages[id]
	path, known := d.packagePaths[id]
	d.mu.RUnlock()
	if cached {
		return p, nil
	}
	if !known {
		return nil, notFound("package", id)
	}
	leave, err := enter(visiting, id)
	if err != nil {
		return nil, err
	}
	defer leave()

	p, err = footprint.Load(path, &resolver{
		padstacks: d.GetPadstack,
		packages:  d.getPackage,
		visiting:  visiting,
	})
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.packages[id]; ok {
		return prev, nil
	}
	d.packages[id] = p
	return p, nil
}

// PackagePath returns the file a package was indexed from.
func (d *Dir) PackagePath(id ident.ID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	path, ok := d.packagePaths[id]
	return path, ok
}

// PadstackIDs returns the indexed padstack ids in ascending order.
func (d *Dir) PadstackIDs() []ident.ID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return ident.SortedKeys(d.padstackPaths)
}

// PackageIDs returns the indexed package ids in ascending order.
func (d *Dir) PackageIDs() []ident.ID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return ident.SortedKeys(d.packagePaths)
}

// Invalidate drops cached documents read from path and re-reads its header,
// so the next lookup sees the file as it is now. Packages are dropped as a
// whole since any of them may hold a copy of a changed padstack.
func (d *Dir) Invalidate(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.byPath[path]; ok {
		delete(d.byPath, path)
		if d.padstackPaths[id] == path {
			delete(d.padstackPaths, id)
			delete(d.padstacks, id)
			clear(d.packages)
		}
		if d.packagePaths[id] == path {
			delete(d.packagePaths, id)
			delete(d.packages, id)
		}
		slog.Debug("pool: invalidated", "path", path, "id", id)
	}

	h, err := readHeader(path)
	if err != nil {
		return
	}
	switch {
	case strings.HasPrefix(path, d.padstackDir()+string(filepath.Separator)) && (h.Type == "" || h.Type == "padstack"):
		d.padstackPaths[h.UUID] = path
		delete(d.padstacks, h.UUID)
		clear(d.packages)
	case strings.HasPrefix(path, d.packageDir()+string(filepath.Separator)) && (h.Type == "" || h.Type == "package"):
		d.packagePaths[h.UUID] = path
		delete(d.packages, h.UUID)
	default:
		return
	}
	d.byPath[path] = h.UUID
}

// Close stops the watcher, if any.
func (d *Dir) Close() error {
	if d.watcher == nil {
		return nil
	}
	err := d.watcher.stop()
	d.watcher = nil
	return err
}
