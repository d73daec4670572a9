package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lane is a row of unit cells along +X; cell n links only to n+1 and n-1,
// except across gap.
type lane struct {
	gap int
}

func (l lane) Position(n int) Vec3 { return xz(float64(n)+0.5, 0.5) }

func (l lane) Portal(from, to int) (Portal, bool) {
	if from == l.gap || to == l.gap {
		return Portal{}, false
	}
	switch to - from {
	case 1:
		x := float64(to)
		return Portal{Left: xz(x, 1), Right: xz(x, 0)}, true
	case -1:
		x := float64(from)
		return Portal{Left: xz(x, 0), Right: xz(x, 1)}, true
	}
	return Portal{}, false
}

func TestCorridorPortals(t *testing.T) {
	c := NewCorridor[int](lane{gap: -1}, nil)
	portals := c.Portals([]int{0, 1, 2}, xz(0.5, 0.5), xz(2.5, 0.5))
	assert.Equal(t, []Portal{
		point(xz(0.5, 0.5)),
		{Left: xz(1, 1), Right: xz(1, 0)},
		{Left: xz(2, 1), Right: xz(2, 0)},
		point(xz(2.5, 0.5)),
	}, portals)
}

func TestCorridorMissingPortalUsesPositions(t *testing.T) {
	c := NewCorridor[int](lane{gap: 2}, nil)
	portals := c.Portals([]int{1, 2}, xz(1.5, 0.5), xz(2.5, 0.5))
	assert.Equal(t, []Portal{
		point(xz(1.5, 0.5)),
		point(xz(1.5, 0.5)),
		point(xz(2.5, 0.5)),
		point(xz(2.5, 0.5)),
	}, portals)
}

func TestCorridorPath(t *testing.T) {
	rec := &countingRecorder{}
	c := NewCorridor[int](lane{gap: -1}, New(WithRecorder(rec)))

	start, end := xz(0.5, 0.2), xz(5.5, 0.8)
	points, pulled := c.Path([]int{0, 1, 2, 3, 4, 5}, start, end)
	require.True(t, pulled)
	assert.Equal(t, []Vec3{start, end}, points)

	backwards, pulled := c.Path([]int{5, 4, 3, 2, 1, 0}, end, start)
	require.True(t, pulled)
	assert.Equal(t, []Vec3{end, start}, backwards)
	assert.Equal(t, 2, rec.runs)
}

func TestCorridorPathFallsBackToSegment(t *testing.T) {
	c := NewCorridor[int](lane{gap: -1}, nil)
	start, end := xz(0.5, 0.5), xz(1.5, 0.5)

	points, pulled := c.Path([]int{0, 1}, start, end)
	assert.False(t, pulled)
	assert.Equal(t, []Vec3{start, end}, points)

	points, pulled = c.Path(nil, start, end)
	assert.False(t, pulled)
	assert.Equal(t, []Vec3{start, end}, points)
}
