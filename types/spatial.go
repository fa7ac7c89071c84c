// types/spatial.go
package types

// Position3D is a point in the 3-space neurons and synapses are placed in.
// Units are arbitrary; only relative distance matters for competition
// radius and spatial-hash bucketing.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// BoundingBox is an axis-aligned region. internal/spatial does not use
// it; Grid.Query computes its cell range from a center and radius
// directly.
type BoundingBox struct {
	Min Position3D `json:"min"`
	Max Position3D `json:"max"`
}

// Sphere is a center and radius. Grid.Query and Grid.QueryExact take the
// center and radius as separate arguments rather than a Sphere.
type Sphere struct {
	Center Position3D `json:"center"`
	Radius float64    `json:"radius"`
}

// Sub returns p - o component-wise, matching standard vector subtraction
// where the receiver is the minuend.
func (p Position3D) Sub(o Position3D) Position3D {
	return Position3D{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// DistanceSquared avoids a sqrt for callers that only need to compare
// against a radius squared.
func (p Position3D) DistanceSquared(o Position3D) float64 {
	d := p.Sub(o)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}
