// Package bounds provides the spatial extent attached to every node and
// bucket of a revision tree.
package bounds

import (
	"fmt"
	"math"
)

// Envelope is an axis-aligned bounding box. The zero value is not empty, use
// Empty to obtain an envelope that contains nothing.
type Envelope struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty returns the null envelope: it contains and intersects nothing and is
// the identity for ExpandToInclude.
func Empty() Envelope {
	return Envelope{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

// New returns the envelope spanning both corners, in any order.
func New(x1, y1, x2, y2 float64) Envelope {
	return Envelope{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// Point returns the degenerate envelope of a single coordinate.
func Point(x, y float64) Envelope {
	return Envelope{MinX: x, MinY: y, MaxX: x, MaxY: y}
}

// IsEmpty reports whether e is the null envelope.
func (e Envelope) IsEmpty() bool {
	return e.MinX > e.MaxX || e.MinY > e.MaxY
}

// ExpandToInclude returns the smallest envelope covering both e and o.
func (e Envelope) ExpandToInclude(o Envelope) Envelope {
	if o.IsEmpty() {
		return e
	}
	if e.IsEmpty() {
		return o
	}

	return Envelope{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// Expand grows e by distance on every side.
func (e Envelope) Expand(distance float64) Envelope {
	if e.IsEmpty() {
		return e
	}

	return New(e.MinX-distance, e.MinY-distance, e.MaxX+distance, e.MaxY+distance)
}

// Intersects reports whether e and o share at least one point.
func (e Envelope) Intersects(o Envelope) bool {
	if e.IsEmpty() || o.IsEmpty() {
		return false
	}

	return e.MinX <= o.MaxX && o.MinX <= e.MaxX &&
		e.MinY <= o.MaxY && o.MinY <= e.MaxY
}

// Contains reports whether o lies entirely within e.
func (e Envelope) Contains(o Envelope) bool {
	if e.IsEmpty() || o.IsEmpty() {
		return false
	}

	return e.MinX <= o.MinX && o.MaxX <= e.MaxX &&
		e.MinY <= o.MinY && o.MaxY <= e.MaxY
}

func (e Envelope) String() string {
	if e.IsEmpty() {
		return "Env[empty]"
	}

	return fmt.Sprintf("Env[%g : %g, %g : %g]", e.MinX, e.MaxX, e.MinY, e.MaxY)
}
