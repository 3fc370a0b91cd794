package world

import "time"

// EffectState distinguishes an inactive timed effect from a running one.
type EffectState uint8

const (
	EffectInactive EffectState = iota
	EffectActive
)

// Effect is a timed player modifier.
// EndsAt and Magnitude are meaningful only while State is EffectActive.
type Effect struct {
	State     EffectState `msgpack:"state"`
	EndsAt    time.Time   `msgpack:"ends_at,omitempty"`
	Magnitude float64     `msgpack:"magnitude,omitempty"`
}

// Activate returns an effect running from now for d.
func Activate(now time.Time, d time.Duration, magnitude float64) Effect {
	return Effect{State: EffectActive, EndsAt: now.Add(d), Magnitude: magnitude}
}

// Active reports whether the effect applies at now.
func (e Effect) Active(now time.Time) bool {
	return e.State == EffectActive && now.Before(e.EndsAt)
}

// Expired reports whether a running effect has reached its end time.
func (e Effect) Expired(now time.Time) bool {
	return e.State == EffectActive && !now.Before(e.EndsAt)
}

// MagnitudeAt returns the magnitude if active, otherwise fallback.
func (e Effect) MagnitudeAt(now time.Time, fallback float64) float64 {
	if e.Active(now) {
		return e.Magnitude
	}
	return fallback
}
