// Package equipment splits electronic equipment into narrow capabilities.
// Phones and radios include the equipment capability instead of widening it,
// so consumers that only switch devices on and off never see call or playback.
package equipment

import (
	"context"
	"sync"

	"github.com/reglet-dev/capkit"
)

// Capability names.
const (
	Equipment = "equipment"
	Phone     = "phone"
	Radio     = "radio"
)

// Power tracks whether a device is on.
type Power struct {
	mu sync.Mutex
	on bool
}

// TurnOn switches the device on.
func (p *Power) TurnOn() {
	p.mu.Lock()
	p.on = true
	p.mu.Unlock()
}

// TurnOff switches the device off.
func (p *Power) TurnOff() {
	p.mu.Lock()
	p.on = false
	p.mu.Unlock()
}

// IsOn reports whether the device is on.
func (p *Power) IsOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// SmartPhone can be switched and can call.
type SmartPhone struct {
	Power
	calls int
}

// Call places a call.
func (s *SmartPhone) Call() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

// Calls returns how many calls were placed.
func (s *SmartPhone) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// InternetRadio can be switched and can play.
type InternetRadio struct {
	Power
	playing bool
}

// StartPlay starts playback.
func (r *InternetRadio) StartPlay() {
	r.mu.Lock()
	r.playing = true
	r.mu.Unlock()
}

// StopPlay stops playback.
func (r *InternetRadio) StopPlay() {
	r.mu.Lock()
	r.playing = false
	r.mu.Unlock()
}

// Playing reports whether the radio is playing.
func (r *InternetRadio) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

// Define declares the equipment, phone and radio capabilities.
func Define(reg *capkit.Registry) error {
	caps := []capkit.Capability{
		{Name: Equipment, Version: "1.0.0", Operations: []string{"turnOn", "turnOff"}},
		{Name: Phone, Version: "1.0.0", Operations: []string{"call"}, Includes: []string{Equipment}},
		{Name: Radio, Version: "1.0.0", Operations: []string{"startPlay", "stopPlay"}, Includes: []string{Equipment}},
	}
	for _, c := range caps {
		if err := reg.DefineCapability(c); err != nil {
			return err
		}
	}
	return nil
}

// Register declares the capabilities and registers phone as "smart-phone"
// and radio as "internet-radio". Both become bindable as equipment too.
func Register(reg *capkit.Registry, phone *SmartPhone, radio *InternetRadio) error {
	if err := Define(reg); err != nil {
		return err
	}

	p := capkit.FromMethods("smart-phone", phone)
	p.Version = "1.2.0"
	if err := reg.RegisterImplementation(Phone, p); err != nil {
		return err
	}

	r := capkit.FromMethods("internet-radio", radio)
	r.Version = "1.0.0"
	return reg.RegisterImplementation(Radio, r)
}

// TurnOnAll switches every device on through the equipment contract alone.
func TurnOnAll(ctx context.Context, devices ...*capkit.Handle) error {
	for _, d := range devices {
		if _, err := d.Invoke(ctx, "turnOn"); err != nil {
			return err
		}
	}
	return nil
}
