// Package core provides fundamental geometry types and helpers for the
// simulation. It has no dependencies on networking or storage so world logic
// stays pure and testable.
package core

import "math"

// Vec2 is a point or displacement on the play field.
// Encoded as a two-element array on the wire.
type Vec2 struct {
	_msgpack struct{} `msgpack:",as_array"`
	X, Y     float64
}

// V returns a vector with the given components.
func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Finite reports whether both components are real numbers.
func (v Vec2) Finite() bool {
	return Finite(v.X) && Finite(v.Y)
}

// Dist returns the Euclidean distance between two points.
func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

// AngleTo returns the heading from v toward o in radians.
func (v Vec2) AngleTo(o Vec2) float64 {
	return math.Atan2(o.Y-v.Y, o.X-v.X)
}

// Step moves v by speed units along angle.
func (v Vec2) Step(angle, speed float64) Vec2 {
	return Vec2{
		X: v.X + speed*math.Cos(angle),
		Y: v.Y + speed*math.Sin(angle),
	}
}

// Bounds is an axis-aligned play field anchored at the origin.
type Bounds struct {
	W, H float64
}

// Clamp moves p onto the nearest point of the field.
func (b Bounds) Clamp(p Vec2) Vec2 {
	return Vec2{X: ClampF(p.X, 0, b.W), Y: ClampF(p.Y, 0, b.H)}
}

// Contains returns true if p lies inside the field, edges included.
func (b Bounds) Contains(p Vec2) bool {
	return p.X >= 0 && p.X <= b.W && p.Y >= 0 && p.Y <= b.H
}

// Center returns the middle of the field.
func (b Bounds) Center() Vec2 {
	return Vec2{X: b.W / 2, Y: b.H / 2}
}

// WrapAngle maps an angular difference into [-π, π).
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// ClampF restricts v to [lo, hi]. NaN maps to lo.
func ClampF(v, lo, hi float64) float64 {
	switch {
	case v > hi:
		return hi
	case v >= lo:
		return v
	default:
		return lo
	}
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
