// Package gridgraph is a walkable grid exposed as a pathcore.Graph and a
// funnel.PortalProvider. Cell (x, y) covers [x, x+1) x [y, y+1) in world X/Z.
package gridgraph

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/pdrpinto/pathcore"
	"github.com/pdrpinto/pathcore/funnel"
)

// Cell is a grid coordinate.
type Cell struct {
	X, Y int
}

// Direction vectors, ordered N, NE, E, SE, S, SW, W, NW.
var dirVectors = [8]Cell{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

const (
	DefaultStraightCost = 10
	DefaultDiagonalCost = 14 // ≈ 10·√2
)

// Grid is a rectangular map with blocked cells.
type Grid struct {
	Width, Height int

	// Diagonal allows moves to the four diagonal neighbours when neither
	// adjacent orthogonal cell is blocked.
	Diagonal     bool
	StraightCost uint32
	DiagonalCost uint32

	walls *bitset.BitSet
}

// Option configures a Grid.
type Option func(*Grid)

// WithDiagonal enables diagonal moves.
func WithDiagonal(enabled bool) Option {
	return func(g *Grid) { g.Diagonal = enabled }
}

// WithCosts sets the edge costs of straight and diagonal moves.
func WithCosts(straight, diagonal uint32) Option {
	return func(g *Grid) {
		g.StraightCost = straight
		g.DiagonalCost = diagonal
	}
}

// New creates a width x height grid without walls.
func New(width, height int, options ...Option) *Grid {
	g := &Grid{
		Width:        width,
		Height:       height,
		StraightCost: DefaultStraightCost,
		DiagonalCost: DefaultDiagonalCost,
		walls:        bitset.New(uint(max(width*height, 0))),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *Grid) index(c Cell) uint { return uint(c.Y*g.Width + c.X) }

// In reports whether c lies inside the grid.
func (g *Grid) In(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Walkable reports whether c is inside the grid and not blocked.
func (g *Grid) Walkable(c Cell) bool {
	return g.In(c) && !g.walls.Test(g.index(c))
}

// SetWall blocks or unblocks c. Cells outside the grid are ignored.
func (g *Grid) SetWall(c Cell, blocked bool) {
	if !g.In(c) {
		return
	}
	if blocked {
		g.walls.Set(g.index(c))
	} else {
		g.walls.Clear(g.index(c))
	}
}

// Walls returns the number of blocked cells.
func (g *Grid) Walls() int { return int(g.walls.Count()) }

// Neighbors implements pathcore.Graph.
func (g *Grid) Neighbors(c Cell) []pathcore.Neighbor[Cell] {
	out := make([]pathcore.Neighbor[Cell], 0, 8)
	for d, v := range dirVectors {
		next := Cell{c.X + v.X, c.Y + v.Y}
		if !g.Walkable(next) {
			continue
		}
		if d%2 == 0 {
			out = append(out, pathcore.Neighbor[Cell]{ID: next, Cost: g.StraightCost})
			continue
		}
		if !g.Diagonal || !g.Walkable(Cell{c.X + v.X, c.Y}) || !g.Walkable(Cell{c.X, c.Y + v.Y}) {
			continue
		}
		out = append(out, pathcore.Neighbor[Cell]{ID: next, Cost: g.DiagonalCost})
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Manhattan is the 4-connected heuristic.
func (g *Grid) Manhattan(a, b Cell) uint32 {
	return uint32(absInt(a.X-b.X)+absInt(a.Y-b.Y)) * g.StraightCost
}

// Octile is the 8-connected heuristic.
func (g *Grid) Octile(a, b Cell) uint32 {
	dx, dy := absInt(a.X-b.X), absInt(a.Y-b.Y)
	lo, hi := uint32(min(dx, dy)), uint32(max(dx, dy))
	return lo*g.DiagonalCost + (hi-lo)*g.StraightCost
}

// Heuristic returns the heuristic matching the grid's connectivity.
func (g *Grid) Heuristic() pathcore.Heuristic[Cell] {
	if g.Diagonal {
		return g.Octile
	}
	return g.Manhattan
}

// Position implements funnel.PortalProvider: the centre of c.
func (g *Grid) Position(c Cell) funnel.Vec3 {
	return funnel.Vec3{X: float64(c.X) + 0.5, Z: float64(c.Y) + 0.5}
}

// Portal implements funnel.PortalProvider. Orthogonal neighbours share a unit
// edge; diagonal neighbours share only a corner, returned as a zero-width portal.
func (g *Grid) Portal(from, to Cell) (funnel.Portal, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if absInt(dx) > 1 || absInt(dy) > 1 || (dx == 0 && dy == 0) {
		return funnel.Portal{}, false
	}
	if dx != 0 && dy != 0 {
		corner := funnel.Vec3{X: float64(from.X + max(dx, 0)), Z: float64(from.Y + max(dy, 0))}
		return funnel.Portal{Left: corner, Right: corner}, true
	}
	mid := g.Position(from).Add(funnel.Vec3{X: float64(dx) * 0.5, Z: float64(dy) * 0.5})
	// Rotating the direction a quarter turn counter-clockwise points left.
	side := funnel.Vec3{X: float64(-dy) * 0.5, Z: float64(dx) * 0.5}
	return funnel.Portal{Left: mid.Add(side), Right: mid.Sub(side)}, true
}

// Nearest returns the walkable cell closest to p and the point of that cell
// closest to p. ok is false when the grid has no walkable cell.
func (g *Grid) Nearest(p funnel.Vec3) (cell Cell, clamped funnel.Vec3, ok bool) {
	if g.Width <= 0 || g.Height <= 0 {
		return Cell{}, funnel.Vec3{}, false
	}
	origin := Cell{
		X: min(max(int(math.Floor(p.X)), 0), g.Width-1),
		Y: min(max(int(math.Floor(p.Z)), 0), g.Height-1),
	}

	bestDist := math.Inf(1)
	maxRadius := max(g.Width, g.Height)
	for r := 0; r <= maxRadius; r++ {
		// Any cell on ring r is at least r-1 away from p.
		if ok && float64(r-1) > math.Sqrt(bestDist) {
			break
		}
		for y := origin.Y - r; y <= origin.Y+r; y++ {
			for x := origin.X - r; x <= origin.X+r; x++ {
				if absInt(x-origin.X) != r && absInt(y-origin.Y) != r {
					continue
				}
				c := Cell{x, y}
				if !g.Walkable(c) {
					continue
				}
				q := g.clampTo(c, p)
				d := (q.X-p.X)*(q.X-p.X) + (q.Z-p.Z)*(q.Z-p.Z)
				if d < bestDist {
					bestDist, cell, clamped, ok = d, c, q, true
				}
			}
		}
	}
	return cell, clamped, ok
}

func (g *Grid) clampTo(c Cell, p funnel.Vec3) funnel.Vec3 {
	return funnel.Vec3{
		X: math.Min(math.Max(p.X, float64(c.X)), float64(c.X+1)),
		Y: p.Y,
		Z: math.Min(math.Max(p.Z, float64(c.Y)), float64(c.Y+1)),
	}
}
