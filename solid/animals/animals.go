// Package animals builds animal variants by decorating a shared base
// behaviour, so any variant can stand in for another behind the animal capability.
package animals

import (
	"context"
	"fmt"
	"io"

	"github.com/reglet-dev/capkit"
)

// Capability is the name of the animal capability.
const Capability = "animal"

type nameKey struct{}

// Base returns the behaviour every animal shares: making a sound scares it.
// The base animal has no name.
func Base(w io.Writer) capkit.Implementation {
	return capkit.Implementation{
		ID: "animal",
		Operations: map[string]capkit.Operation{
			"name": capkit.Constant(""),
			"makeSound": func(ctx context.Context, _ ...any) (any, error) {
				name, _ := ctx.Value(nameKey{}).(string)
				_, err := fmt.Fprintf(w, "%s was scared\n", name)
				return nil, err
			},
		},
	}
}

// Cat says "Mew" after the base behaviour.
func Cat(w io.Writer) capkit.Implementation {
	return variant(w, "cat", "Cat", "Mew")
}

// Dog says "Gaw" after the base behaviour.
func Dog(w io.Writer) capkit.Implementation {
	return variant(w, "dog", "Dog", "Gaw")
}

// variant reports a fixed name and layers its sound over the base makeSound.
func variant(w io.Writer, id, name, sound string) capkit.Implementation {
	return capkit.Extend(Base(w), id, map[string]capkit.Decorator{
		"name": func(capkit.Operation) capkit.Operation {
			return capkit.Constant(name)
		},
		"makeSound": func(next capkit.Operation) capkit.Operation {
			return func(ctx context.Context, args ...any) (any, error) {
				if _, err := next(context.WithValue(ctx, nameKey{}, name), args...); err != nil {
					return nil, err
				}
				_, err := fmt.Fprintln(w, sound)
				return nil, err
			}
		},
	})
}

// Register declares the animal capability and registers cat and dog,
// both writing to w.
func Register(reg *capkit.Registry, w io.Writer) error {
	if err := reg.Define(Capability, "makeSound", "name"); err != nil {
		return err
	}
	for _, impl := range []capkit.Implementation{Cat(w), Dog(w)} {
		if err := reg.RegisterImplementation(Capability, impl); err != nil {
			return err
		}
	}
	return nil
}

// MakeSounds has every animal make its sound, in order.
func MakeSounds(ctx context.Context, animals ...*capkit.Handle) error {
	for _, a := range animals {
		if _, err := a.Invoke(ctx, "makeSound"); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the name an animal reports.
func Name(ctx context.Context, animal *capkit.Handle) (string, error) {
	v, err := animal.Invoke(ctx, "name")
	if err != nil {
		return "", err
	}
	name, _ := v.(string)
	return name, nil
}
