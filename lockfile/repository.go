package lockfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

// document is the YAML structure of a lockfile.
type document struct {
	Generated time.Time            `yaml:"generated"`
	Bindings  map[string]entryYAML `yaml:"bindings"`
	Version   int                  `yaml:"lockfile_version"`
}

type entryYAML struct {
	Requested string `yaml:"requested,omitempty"`
	Resolved  string `yaml:"resolved"`
	Version   string `yaml:"version,omitempty"`
}

func (d *document) toEntity() *Lockfile {
	l := &Lockfile{
		Generated: d.Generated,
		Version:   d.Version,
		Bindings:  make(map[string]Entry, len(d.Bindings)),
	}
	for key, e := range d.Bindings {
		l.Bindings[key] = Entry(e)
	}
	return l
}

func fromEntity(l *Lockfile) *document {
	d := &document{
		Generated: l.Generated,
		Version:   l.Version,
		Bindings:  make(map[string]entryYAML, len(l.Bindings)),
	}
	for key, e := range l.Bindings {
		d.Bindings[key] = entryYAML(e)
	}
	return d
}

// Repository persists lockfiles on the local filesystem.
type Repository struct{}

// NewRepository creates a new Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Load reads a lockfile from the given path. A missing file yields nil, nil.
func (r *Repository) Load(ctx context.Context, path string) (*Lockfile, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open directory %q: %w", filepath.Dir(path), err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.Open(filepath.Base(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open lockfile %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var d document
	if err := yaml.NewDecoder(file).DecodeContext(ctx, &d); err != nil {
		return nil, fmt.Errorf("decoding lockfile YAML: %w", err)
	}

	lock := d.toEntity()
	if err := lock.Validate(); err != nil {
		return nil, fmt.Errorf("invalid lockfile: %w", err)
	}
	return lock, nil
}

// Save writes a lockfile to the given path, creating its directory.
func (r *Repository) Save(ctx context.Context, lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile cannot be nil")
	}
	if err := lock.Validate(); err != nil {
		return fmt.Errorf("invalid lockfile: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating directory %q: %w", dir, err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return fmt.Errorf("opening directory for write %q: %w", dir, err)
	}
	defer func() { _ = root.Close() }()

	file, err := root.OpenFile(filepath.Base(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating lockfile %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	enc := yaml.NewEncoder(file)
	defer func() { _ = enc.Close() }()

	if err := enc.EncodeContext(ctx, fromEntity(lock)); err != nil {
		return fmt.Errorf("encoding lockfile: %w", err)
	}
	return nil
}

// Exists checks if a lockfile exists at the given path.
func (r *Repository) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
