// Package deeplink routes deeplinks through the deeplink capability. New
// deeplinks are added by registering them; the router never changes.
package deeplink

import (
	"context"
	"fmt"
	"sync"

	"github.com/reglet-dev/capkit"
)

// Capability is the name of the deeplink capability.
const Capability = "deeplink"

// Screen records which screens were shown.
type Screen struct {
	mu    sync.Mutex
	shown []string
}

// Show displays a screen.
func (s *Screen) Show(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, name)
}

// Shown lists the screens shown so far.
func (s *Screen) Shown() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shown...)
}

// Link is a deeplink that shows one screen.
type Link struct {
	ID     string
	Target string
	screen *Screen
}

// Execute shows the link's target screen.
func (l *Link) Execute() {
	l.screen.Show(l.Target)
}

// HomeDeeplink shows the home screen.
func HomeDeeplink(screen *Screen) *Link {
	return &Link{ID: "home", Target: "home", screen: screen}
}

// ProfileDeeplink shows the profile screen.
func ProfileDeeplink(screen *Screen) *Link {
	return &Link{ID: "profile", Target: "profile", screen: screen}
}

// SettingsDeeplink shows the settings screen.
func SettingsDeeplink(screen *Screen) *Link {
	return &Link{ID: "settings", Target: "settings", screen: screen}
}

// Register declares the deeplink capability and registers links.
func Register(reg *capkit.Registry, links ...*Link) error {
	if err := reg.Define(Capability, "execute"); err != nil {
		return err
	}
	for _, l := range links {
		impl := capkit.FromMethods(l.ID, l)
		impl.Description = fmt.Sprintf("Shows the %s screen", l.Target)
		if err := reg.RegisterImplementation(Capability, impl); err != nil {
			return err
		}
	}
	return nil
}

// Router executes deeplinks without knowing which one it was given.
type Router struct{}

// Execute runs link.
func (Router) Execute(ctx context.Context, link *capkit.Handle) error {
	_, err := link.Invoke(ctx, "execute")
	return err
}
