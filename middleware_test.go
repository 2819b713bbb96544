package capkit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/reglet-dev/capkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tag(name string, trace *[]string) capkit.Middleware {
	return func(next capkit.Operation) capkit.Operation {
		return func(ctx context.Context, args ...any) (any, error) {
			*trace = append(*trace, name+">")
			res, err := next(ctx, args...)
			*trace = append(*trace, "<"+name)
			return res, err
		}
	}
}

func TestChain_Order(t *testing.T) {
	var trace []string
	op := func(context.Context, ...any) (any, error) {
		trace = append(trace, "op")
		return nil, nil
	}

	_, err := capkit.Chain(op, tag("a", &trace), tag("b", &trace))(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a>", "b>", "op", "<b", "<a"}, trace)
}

func TestRegistry_WithMiddleware(t *testing.T) {
	var trace []string
	reg := capkit.NewRegistry(capkit.WithMiddleware(tag("outer", &trace), tag("inner", &trace)))
	require.NoError(t, reg.Define("deeplink", "execute"))
	require.NoError(t, reg.RegisterImplementation("deeplink", capkit.Implementation{
		ID: "home",
		Operations: map[string]capkit.Operation{
			"execute": func(context.Context, ...any) (any, error) {
				trace = append(trace, "home")
				return nil, nil
			},
		},
	}))

	h, err := reg.Bind("deeplink", "home")
	require.NoError(t, err)
	_, err = h.Invoke(context.Background(), "execute")
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "home", "<inner", "<outer"}, trace)
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	reg := capkit.NewRegistry(capkit.WithMiddleware(capkit.PanicRecoveryMiddleware()))
	require.NoError(t, reg.Define("storage", "save"))
	require.NoError(t, reg.RegisterImplementation("storage", capkit.Implementation{
		ID: "flaky",
		Operations: map[string]capkit.Operation{
			"save": func(context.Context, ...any) (any, error) { panic("boom") },
		},
	}))
	h, err := reg.Bind("storage", "flaky")
	require.NoError(t, err)

	res, err := h.Invoke(context.Background(), "save")
	assert.Nil(t, res)

	var pe *capkit.PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "boom", pe.Value)
	assert.Equal(t, "storage", pe.Invocation.Capability)
	assert.Equal(t, "flaky", pe.Invocation.Implementation)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := capkit.NewRegistry(capkit.WithMiddleware(capkit.LoggingMiddleware(logger, slog.LevelInfo)))
	require.NoError(t, reg.Define("storage", "save", "load"))
	require.NoError(t, reg.RegisterImplementation("storage", capkit.Implementation{
		ID: "local",
		Operations: map[string]capkit.Operation{
			"save": capkit.Constant(true),
			"load": func(context.Context, ...any) (any, error) { return nil, errors.New("missing") },
		},
	}))
	h, err := reg.Bind("storage", "local")
	require.NoError(t, err)

	_, err = h.Invoke(context.Background(), "save")
	require.NoError(t, err)
	_, err = h.Invoke(context.Background(), "load")
	require.Error(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], "capability=storage")
	assert.Contains(t, lines[0], "implementation=local")
	assert.Contains(t, lines[0], "operation=save")
	assert.Contains(t, lines[1], "level=ERROR")
	assert.Contains(t, lines[1], "error=missing")
}

func TestExtend(t *testing.T) {
	var out []string
	base := capkit.Implementation{
		ID:      "animal",
		Version: "1.0.0",
		Operations: map[string]capkit.Operation{
			"makeSound": func(context.Context, ...any) (any, error) {
				out = append(out, "scared")
				return nil, nil
			},
		},
	}
	after := func(s string) capkit.Decorator {
		return func(next capkit.Operation) capkit.Operation {
			return func(ctx context.Context, args ...any) (any, error) {
				res, err := next(ctx, args...)
				out = append(out, s)
				return res, err
			}
		}
	}

	cat := capkit.Extend(base, "cat", map[string]capkit.Decorator{
		"makeSound": after("mew"),
		"purr":      after("purr"),
	})
	assert.Equal(t, "cat", cat.ID)
	assert.Equal(t, "1.0.0", cat.Version)

	_, err := cat.Operations["makeSound"](context.Background())
	require.NoError(t, err)
	_, err = cat.Operations["purr"](context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"scared", "mew", "purr"}, out)

	assert.NotContains(t, base.Operations, "purr")
}
