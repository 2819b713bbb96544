package lockfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reglet-dev/capkit/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockfile_AddGet(t *testing.T) {
	lock := lockfile.New()
	assert.Equal(t, lockfile.CurrentVersion, lock.Version)
	assert.False(t, lock.Generated.IsZero())

	require.NoError(t, lock.Add(lockfile.Key("saver", "storage"), lockfile.Entry{Requested: "local", Resolved: "local"}))
	assert.Error(t, lock.Add("x/y", lockfile.Entry{Requested: "z"}))

	e := lock.Get("saver/storage")
	require.NotNil(t, e)
	assert.Equal(t, "local", e.Resolved)
	assert.Nil(t, lock.Get("missing"))

	var nilLock *lockfile.Lockfile
	assert.Nil(t, nilLock.Get("saver/storage"))

	assert.Equal(t, []string{"saver/storage"}, lock.Keys())
}

func TestLockfile_Validate(t *testing.T) {
	lock := &lockfile.Lockfile{Bindings: map[string]lockfile.Entry{"a/b": {Resolved: "c"}}}
	assert.Error(t, lock.Validate(), "missing timestamp")

	lock.Generated = time.Now()
	assert.NoError(t, lock.Validate())

	lock.Version = lockfile.CurrentVersion + 1
	assert.Error(t, lock.Validate())
}

func TestRepository(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "nested", "capkit.lock")
	repo := lockfile.NewRepository()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		lock := lockfile.New()
		lock.Generated = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, lock.Add("dialer/phone", lockfile.Entry{
			Requested: "smart* ^1.0",
			Resolved:  "smartphone",
			Version:   "1.2.0",
		}))

		require.NoError(t, repo.Save(ctx, lock, lockPath))

		exists, err := repo.Exists(ctx, lockPath)
		require.NoError(t, err)
		assert.True(t, exists)

		loaded, err := repo.Load(ctx, lockPath)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, lock.Version, loaded.Version)
		assert.Equal(t, lock.Generated.Unix(), loaded.Generated.Unix())

		e := loaded.Get("dialer/phone")
		require.NotNil(t, e)
		assert.Equal(t, "smartphone", e.Resolved)
		assert.Equal(t, "1.2.0", e.Version)
		assert.Equal(t, "smart* ^1.0", e.Requested)
	})

	t.Run("Load non-existent", func(t *testing.T) {
		loaded, err := repo.Load(ctx, filepath.Join(tmpDir, "missing.lock"))
		require.NoError(t, err)
		assert.Nil(t, loaded)

		loaded, err = repo.Load(ctx, filepath.Join(tmpDir, "nodir", "missing.lock"))
		require.NoError(t, err)
		assert.Nil(t, loaded)

		exists, err := repo.Exists(ctx, filepath.Join(tmpDir, "missing.lock"))
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Load invalid", func(t *testing.T) {
		bad := filepath.Join(tmpDir, "bad.lock")
		require.NoError(t, os.WriteFile(bad, []byte("bindings:\n  a/b:\n    requested: x\n"), 0o600))
		_, err := repo.Load(ctx, bad)
		assert.Error(t, err)
	})

	t.Run("Save nil", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, nil, lockPath))
	})
}
