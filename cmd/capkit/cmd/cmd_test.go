package cmd_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/cmd/capkit/cmd"
	"github.com/reglet-dev/capkit/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := cmd.NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)

	for _, want := range []string{"storage", "deeplink", "equipment", "phone", "radio", "animal", "network", "database", "smart-phone", "via phone"} {
		assert.Contains(t, out, want)
	}
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "manifest")
	assert.Contains(t, out, "storage")

	out, _, err = execute(t, "schema", "storage")
	require.NoError(t, err)
	assert.Contains(t, out, `"save"`)

	_, _, err = execute(t, "schema", "nope")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join("testdata", "demo.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, stderr, err := execute(t, "validate", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Contains(t, stderr, "/bindings/0")
}

func TestValidate_CapabilityCall(t *testing.T) {
	out, _, err := execute(t, "validate", "--kind", "storage", filepath.Join("testdata", "save_call.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, stderr, err := execute(t, "validate", "--kind", "storage", filepath.Join("testdata", "delete_call.json"))
	require.Error(t, err)
	assert.Contains(t, stderr, "/operation")

	_, _, err = execute(t, "validate", "--kind", "fax", filepath.Join("testdata", "save_call.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "capkit.lock")

	out, _, err := execute(t, "run", filepath.Join("testdata", "demo.yaml"), "--lock", lockPath, "--write-lock", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, out, "file-saver saved a file via local")
	assert.Contains(t, out, "dialer placed a call via smart-phone")
	assert.Contains(t, out, "router opened settings")
	assert.Contains(t, out, "Cat was scared\nMew\n")
	assert.Contains(t, out, "sync moved data from http to sql")
	assert.Contains(t, out, "storage.save [local]: 1")

	lock, err := lockfile.NewRepository().Load(t.Context(), lockPath)
	require.NoError(t, err)
	require.NotNil(t, lock)
	entry := lock.Get(lockfile.Key("dialer", "phone"))
	require.NotNil(t, entry)
	assert.Equal(t, "smart-phone", entry.Resolved)

	// A second run reuses the lockfile.
	_, _, err = execute(t, "run", filepath.Join("testdata", "demo.yaml"), "--lock", lockPath)
	require.NoError(t, err)
}

func TestRun_PolicyDenied(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join("testdata", "denied.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding denied")
}

func TestRun_ConflictingCapability(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join("testdata", "conflict.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, capkit.ErrDuplicateCapability)
	assert.NotContains(t, out, "saved a file")
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "list")
	assert.Error(t, err)
}
