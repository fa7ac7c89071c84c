// Package spatial implements the uniform 3D grid the engine uses to
// answer radius queries over neuron positions. Positions are bucketed
// into cells so a competition-radius query only has to scan nearby
// cells instead of every neuron.
package spatial

import "github.com/hidra-sim/hidra/types"

type cellKey struct{ x, y, z int64 }

// Grid is a uniform bucket grid, typically sized with cell side equal to
// twice the world's competition radius. It must be rebuildable from
// scratch in O(N) after a snapshot load, which NewGrid + repeated Insert
// provides directly.
type Grid struct {
	cellSide float64
	cells    map[cellKey][]uint64
	pos      map[uint64]types.Position3D
}

// NewGrid constructs an empty grid with the given cell side length. A
// non-positive side is a caller bug (an invalid CompetitionRadius), so it
// is coerced to a small positive default rather than dividing by zero on
// every insert.
func NewGrid(cellSide float64) *Grid {
	if cellSide <= 0 {
		cellSide = 1
	}
	return &Grid{
		cellSide: cellSide,
		cells:    make(map[cellKey][]uint64),
		pos:      make(map[uint64]types.Position3D),
	}
}

// Insert places id at position p, replacing any prior position it held.
func (g *Grid) Insert(id uint64, p types.Position3D) {
	if old, ok := g.pos[id]; ok {
		g.removeFromCell(cellOf(old, g.cellSide), id)
	}
	k := cellOf(p, g.cellSide)
	g.cells[k] = append(g.cells[k], id)
	g.pos[id] = p
}

// Remove drops id from the grid entirely. Called immediately on
// apoptosis, so a dead neuron never surfaces in a subsequent query.
func (g *Grid) Remove(id uint64) {
	p, ok := g.pos[id]
	if !ok {
		return
	}
	g.removeFromCell(cellOf(p, g.cellSide), id)
	delete(g.pos, id)
}

func (g *Grid) removeFromCell(k cellKey, id uint64) {
	ids := g.cells[k]
	for i, v := range ids {
		if v == id {
			ids[i] = ids[len(ids)-1]
			g.cells[k] = ids[:len(ids)-1]
			break
		}
	}
	if len(g.cells[k]) == 0 {
		delete(g.cells, k)
	}
}

// Clear empties the grid entirely, used before an O(N) rebuild from the
// neuron map after a snapshot load.
func (g *Grid) Clear() {
	g.cells = make(map[cellKey][]uint64)
	g.pos = make(map[uint64]types.Position3D)
}

// Query returns every ID whose cell falls within the bounding box of
// center±radius. Callers do exact distance filtering themselves; this
// only narrows by cell.
func (g *Grid) Query(center types.Position3D, radius float64) []uint64 {
	if radius < 0 {
		return nil
	}
	minK := cellOf(types.Position3D{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius}, g.cellSide)
	maxK := cellOf(types.Position3D{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius}, g.cellSide)

	var out []uint64
	for x := minK.x; x <= maxK.x; x++ {
		for y := minK.y; y <= maxK.y; y++ {
			for z := minK.z; z <= maxK.z; z++ {
				out = append(out, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	return out
}

// QueryExact is Query followed by the exact-distance filter most callers
// want, returning only IDs truly within radius of center.
func (g *Grid) QueryExact(center types.Position3D, radius float64) []uint64 {
	candidates := g.Query(center, radius)
	r2 := radius * radius
	out := candidates[:0]
	for _, id := range candidates {
		if p, ok := g.pos[id]; ok && p.DistanceSquared(center) <= r2 {
			out = append(out, id)
		}
	}
	return out
}

func cellOf(p types.Position3D, side float64) cellKey {
	return cellKey{
		x: floorToInt(p.X / side),
		y: floorToInt(p.Y / side),
		z: floorToInt(p.Z / side),
	}
}

func floorToInt(v float64) int64 {
	i := int64(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}
