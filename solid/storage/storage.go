// Package storage saves files through the storage capability. The handler
// depends on the capability only, so local and cloud backends are interchangeable.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/reglet-dev/capkit"
)

// Capability is the name of the storage capability.
const Capability = "storage"

// ErrEmptyName is returned when saving a file without a name.
var ErrEmptyName = errors.New("file name cannot be empty")

// File is the unit of storage.
type File struct {
	Name string
	Data []byte
}

// memory records saved files in order.
type memory struct {
	mu    sync.Mutex
	files []File
}

func (m *memory) save(f File) error {
	if f.Name == "" {
		return ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = append(m.files, f)
	return nil
}

func (m *memory) saved() []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]File(nil), m.files...)
}

// LocalStorage keeps files on the local machine.
type LocalStorage struct {
	memory
}

// Save stores f locally.
func (s *LocalStorage) Save(_ context.Context, f File) error {
	return s.save(f)
}

// Files lists what was saved.
func (s *LocalStorage) Files() []File {
	return s.saved()
}

// CloudStorage keeps files in a remote bucket.
type CloudStorage struct {
	memory
	Bucket string
}

// Save stores f in the bucket.
func (s *CloudStorage) Save(_ context.Context, f File) error {
	return s.save(f)
}

// Files lists what was saved.
func (s *CloudStorage) Files() []File {
	return s.saved()
}

// Register declares the storage capability and registers both backends
// as "local" and "cloud".
func Register(reg *capkit.Registry, local *LocalStorage, cloud *CloudStorage) error {
	if err := reg.DefineCapability(capkit.Capability{
		Name:        Capability,
		Version:     "1.0.0",
		Description: "Persists files",
		Operations:  []string{"save"},
	}); err != nil {
		return err
	}

	l := capkit.FromMethods("local", local)
	l.Version = "1.0.0"
	l.Description = "Local disk"
	if err := reg.RegisterImplementation(Capability, l); err != nil {
		return err
	}

	c := capkit.FromMethods("cloud", cloud)
	c.Version = "1.0.0"
	c.Description = "Cloud bucket"
	return reg.RegisterImplementation(Capability, c)
}

// StorageHandler saves files through whichever storage it was bound to.
type StorageHandler struct {
	storage *capkit.Handle
}

// NewStorageHandler creates a handler over a storage handle.
func NewStorageHandler(storage *capkit.Handle) *StorageHandler {
	return &StorageHandler{storage: storage}
}

// Handle saves f.
func (h *StorageHandler) Handle(ctx context.Context, f File) error {
	_, err := h.storage.Invoke(ctx, "save", f)
	return err
}
