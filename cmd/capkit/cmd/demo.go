package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/reglet-dev/capkit"
	"github.com/reglet-dev/capkit/compose"
	"github.com/reglet-dev/capkit/metrics"
	"github.com/reglet-dev/capkit/solid/animals"
	"github.com/reglet-dev/capkit/solid/deeplink"
	"github.com/reglet-dev/capkit/solid/equipment"
	"github.com/reglet-dev/capkit/solid/pipeline"
	"github.com/reglet-dev/capkit/solid/storage"
)

// demo holds the registry with every example registered, plus the
// implementations so their effects can be reported.
type demo struct {
	registry *capkit.Registry
	out      io.Writer

	local  *storage.LocalStorage
	cloud  *storage.CloudStorage
	screen *deeplink.Screen
	phone  *equipment.SmartPhone
	radio  *equipment.InternetRadio
	db     *pipeline.DatabaseHandler
}

func newDemo(out io.Writer, logger *slog.Logger, collector *metrics.Collector) (*demo, error) {
	mws := []capkit.Middleware{
		capkit.PanicRecoveryMiddleware(),
		capkit.LoggingMiddleware(logger, slog.LevelDebug),
	}
	if collector != nil {
		mws = append(mws, collector.Middleware())
	}

	d := &demo{
		registry: capkit.NewRegistry(capkit.WithLogger(logger), capkit.WithMiddleware(mws...)),
		out:      out,
		local:    &storage.LocalStorage{},
		cloud:    &storage.CloudStorage{Bucket: "demo"},
		screen:   &deeplink.Screen{},
		phone:    &equipment.SmartPhone{},
		radio:    &equipment.InternetRadio{},
		db:       &pipeline.DatabaseHandler{},
	}

	steps := []func() error{
		func() error { return storage.Register(d.registry, d.local, d.cloud) },
		func() error {
			return deeplink.Register(d.registry,
				deeplink.HomeDeeplink(d.screen),
				deeplink.ProfileDeeplink(d.screen),
				deeplink.SettingsDeeplink(d.screen))
		},
		func() error { return equipment.Register(d.registry, d.phone, d.radio) },
		func() error { return animals.Register(d.registry, out) },
		func() error {
			return pipeline.Register(d.registry, &pipeline.NetworkHandler{Payload: []byte("payload")}, d.db)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// exercise runs the example handler for every composed binding.
func (d *demo) exercise(ctx context.Context, asm *compose.Assembly) error {
	for _, b := range asm.Bindings() {
		h, err := asm.Handle(b.Consumer, b.Capability)
		if err != nil {
			return err
		}
		if err := d.run(ctx, asm, b, h); err != nil {
			return fmt.Errorf("%s/%s: %w", b.Consumer, b.Capability, err)
		}
	}
	return nil
}

func (d *demo) run(ctx context.Context, asm *compose.Assembly, b compose.Binding, h *capkit.Handle) error {
	switch b.Capability {
	case storage.Capability:
		if err := storage.NewStorageHandler(h).Handle(ctx, storage.File{Name: b.Consumer + ".txt"}); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s saved a file via %s\n", b.Consumer, h.Implementation())
	case deeplink.Capability:
		if err := (deeplink.Router{}).Execute(ctx, h); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s opened %s\n", b.Consumer, h.Implementation())
	case equipment.Equipment:
		if err := equipment.TurnOnAll(ctx, h); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s turned on %s\n", b.Consumer, h.Implementation())
	case equipment.Phone:
		if _, err := h.Invoke(ctx, "call"); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s placed a call via %s\n", b.Consumer, h.Implementation())
	case equipment.Radio:
		if _, err := h.Invoke(ctx, "startPlay"); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s started %s\n", b.Consumer, h.Implementation())
	case animals.Capability:
		return animals.MakeSounds(ctx, h)
	case pipeline.Network:
		db, err := asm.Handle(b.Consumer, pipeline.Database)
		if err != nil {
			fmt.Fprintf(d.out, "%s has no database binding, skipping fetch\n", b.Consumer)
			return nil
		}
		if err := pipeline.NewHandler(h, db).Handle(ctx); err != nil {
			return err
		}
		fmt.Fprintf(d.out, "%s moved data from %s to %s\n", b.Consumer, h.Implementation(), db.Implementation())
	default:
		fmt.Fprintf(d.out, "%s bound %s to %s (no demo action)\n", b.Consumer, b.Capability, h.Implementation())
	}
	return nil
}
