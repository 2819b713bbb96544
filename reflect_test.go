package capkit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/reglet-dev/capkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lamp struct {
	on bool
}

func (l *lamp) TurnOn() { l.on = true }
func (l *lamp) TurnOff(ctx context.Context) error { l.on = false; return nil }
func (l *lamp) Status() string { return fmt.Sprintf("on=%t", l.on) }
func (l *lamp) Dim(level int) (int, error) { return level / 2, nil }
func (l *lamp) Label(prefix string, parts ...string) string {
	return fmt.Sprint(prefix, parts)
}
func (l *lamp) Fail() error { return errors.New("fused") }
func (l *lamp) Triple() (int, int, int) { return 1, 2, 3 }
func (l *lamp) Accept(v fmt.Stringer) bool { return v == nil }

func TestOperationName(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"TurnOn", "turnOn"},
		{"Save", "save"},
		{"URL", "url"},
		{"HTTPGet", "httpGet"},
		{"ID2", "id2"},
		{"X", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, capkit.OperationName(tt.method))
		})
	}
}

func TestFromMethods(t *testing.T) {
	ctx := context.Background()
	l := &lamp{}
	impl := capkit.FromMethods("lamp", l)

	assert.Equal(t, "lamp", impl.ID)
	assert.Contains(t, impl.Operations, "turnOn")
	assert.Contains(t, impl.Operations, "turnOff")
	assert.NotContains(t, impl.Operations, "triple")

	t.Run("no results", func(t *testing.T) {
		res, err := impl.Operations["turnOn"](ctx)
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.True(t, l.on)
	})

	t.Run("context parameter", func(t *testing.T) {
		_, err := impl.Operations["turnOff"](ctx)
		require.NoError(t, err)
		assert.False(t, l.on)
	})

	t.Run("value result", func(t *testing.T) {
		res, err := impl.Operations["status"](ctx)
		require.NoError(t, err)
		assert.Equal(t, "on=false", res)
	})

	t.Run("value and error", func(t *testing.T) {
		res, err := impl.Operations["dim"](ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, res)
	})

	t.Run("variadic", func(t *testing.T) {
		res, err := impl.Operations["label"](ctx, "x", "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "x[a b]", res)

		_, err = impl.Operations["label"](ctx)
		assert.ErrorIs(t, err, capkit.ErrInvalidArguments)
	})

	t.Run("error result", func(t *testing.T) {
		_, err := impl.Operations["fail"](ctx)
		assert.EqualError(t, err, "fused")
	})

	t.Run("nil interface argument", func(t *testing.T) {
		res, err := impl.Operations["accept"](ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, true, res)
	})

	t.Run("argument mismatch", func(t *testing.T) {
		_, err := impl.Operations["dim"](ctx, "bright")
		assert.ErrorIs(t, err, capkit.ErrInvalidArguments)

		_, err = impl.Operations["dim"](ctx)
		assert.ErrorIs(t, err, capkit.ErrInvalidArguments)

		_, err = impl.Operations["dim"](ctx, nil)
		assert.ErrorIs(t, err, capkit.ErrInvalidArguments)
	})
}

func TestFromMethods_Registers(t *testing.T) {
	reg := capkit.NewRegistry()
	require.NoError(t, reg.Define("equipment", "turnOn", "turnOff"))
	require.NoError(t, reg.RegisterImplementation("equipment", capkit.FromMethods("lamp", &lamp{})))

	type fan struct{}
	err := reg.RegisterImplementation("equipment", capkit.FromMethods("fan", fan{}))
	assert.ErrorIs(t, err, capkit.ErrIncompleteImplementation)
}

func TestFromMethods_Nil(t *testing.T) {
	impl := capkit.FromMethods("empty", nil)
	assert.Empty(t, impl.Operations)
}
