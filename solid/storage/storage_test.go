package storage_test

import (
	"context"
	"testing"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/solid/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*capkit.Registry, *storage.LocalStorage, *storage.CloudStorage) {
	t.Helper()
	reg := capkit.NewRegistry()
	local := &storage.LocalStorage{}
	cloud := &storage.CloudStorage{Bucket: "files"}
	require.NoError(t, storage.Register(reg, local, cloud))
	return reg, local, cloud
}

func TestStorageHandler_SavesThroughBoundBackend(t *testing.T) {
	reg, local, cloud := setup(t)

	h, err := reg.Bind(storage.Capability, "local")
	require.NoError(t, err)

	handler := storage.NewStorageHandler(h)
	require.NoError(t, handler.Handle(context.Background(), storage.File{Name: "file"}))

	assert.Equal(t, []storage.File{{Name: "file"}}, local.Files())
	assert.Empty(t, cloud.Files())
}

func TestStorageHandler_Substitutable(t *testing.T) {
	for _, id := range []string{"local", "cloud"} {
		t.Run(id, func(t *testing.T) {
			reg, local, cloud := setup(t)
			h, err := reg.Bind(storage.Capability, id)
			require.NoError(t, err)

			handler := storage.NewStorageHandler(h)
			require.NoError(t, handler.Handle(context.Background(), storage.File{Name: "report"}))

			err = handler.Handle(context.Background(), storage.File{})
			assert.ErrorIs(t, err, storage.ErrEmptyName)

			assert.Len(t, append(local.Files(), cloud.Files()...), 1)
		})
	}
}

func TestRegister_Twice(t *testing.T) {
	reg, _, _ := setup(t)
	err := storage.Register(reg, &storage.LocalStorage{}, &storage.CloudStorage{})
	assert.ErrorIs(t, err, capkit.ErrDuplicateCapability)
}
