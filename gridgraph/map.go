package gridgraph

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
)

// Map is a parsed grid with optional start and goal markers.
type Map struct {
	*Grid
	Start, Goal       Cell
	HasStart, HasGoal bool
}

// Parse reads an ASCII map: '.' walkable, '#' blocked, 'S' start, 'G' goal.
// Blank lines and lines starting with ';' are skipped. Rows shorter than the
// widest row are padded with walls.
func Parse(r io.Reader, options ...Option) (*Map, error) {
	var rows []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read map: no rows")
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	m := &Map{Grid: New(width, len(rows), options...)}
	for y, row := range rows {
		for x := 0; x < width; x++ {
			if x >= len(row) {
				m.SetWall(Cell{x, y}, true)
				continue
			}
			switch ch := row[x]; ch {
			case '.':
			case '#':
				m.SetWall(Cell{x, y}, true)
			case 'S':
				if m.HasStart {
					return nil, fmt.Errorf("read map: second start marker at %d,%d", x, y)
				}
				m.Start, m.HasStart = Cell{x, y}, true
			case 'G':
				if m.HasGoal {
					return nil, fmt.Errorf("read map: second goal marker at %d,%d", x, y)
				}
				m.Goal, m.HasGoal = Cell{x, y}, true
			default:
				return nil, fmt.Errorf("read map: unexpected %q at %d,%d", ch, x, y)
			}
		}
	}
	return m, nil
}

// String renders the grid with '.' and '#'.
func (g *Grid) String() string {
	return g.Render(nil)
}

// Render renders the grid and marks the cells of path with '*'.
func (g *Grid) Render(path []Cell) string {
	marked := make(map[Cell]bool, len(path))
	for _, c := range path {
		marked[c] = true
	}
	var b strings.Builder
	b.Grow((g.Width + 1) * g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := Cell{x, y}
			switch {
			case marked[c]:
				b.WriteByte('*')
			case !g.Walkable(c):
				b.WriteByte('#')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Random builds a grid with clustered walls grown by random walks. keep lists
// cells that must stay walkable, typically start and goal.
func Random(width, height, clusters, steps int, density float64, seed int64, keep []Cell, options ...Option) *Grid {
	g := New(width, height, options...)
	if width <= 0 || height <= 0 {
		return g
	}
	r := rand.New(rand.NewSource(seed))
	for c := 0; c < clusters; c++ {
		p := Cell{r.Intn(width), r.Intn(height)}
		for s := 0; s < steps; s++ {
			if r.Float64() < density {
				g.SetWall(p, true)
			}
			d := dirVectors[2*r.Intn(4)]
			next := Cell{p.X + d.X, p.Y + d.Y}
			if g.In(next) {
				p = next
			}
		}
	}
	for _, c := range keep {
		g.SetWall(c, false)
	}
	return g
}
