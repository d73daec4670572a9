// Package funnel implements string pulling: it turns a corridor of portals
// into the shortest polyline that passes through all of them.
package funnel

import (
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/pathcore/internal/pool"
)

// DefaultMaxPoints bounds the output of one funnel run. Hitting it means the
// corridor is malformed; the run stops and the end point is appended.
const DefaultMaxPoints = 2000

// Portal is the edge shared by two consecutive corridor nodes, as seen when
// walking the corridor from start to end.
//
// The first portal of a corridor is the start point (Left == Right) and the
// last one is the end point.
type Portal struct {
	Left, Right Vec3
}

// Winding records whether the corridor's left and right sides are read as
// given or swapped.
type Winding uint8

const (
	WindingNormal Winding = iota
	WindingSwapped
)

// Recorder receives one call per funnel run.
type Recorder interface {
	RecordFunnel(points int, ok bool)
}

// Funnel runs the string-pulling algorithm with configurable limits.
// A Funnel is safe for concurrent use as long as Logger and Recorder are.
type Funnel struct {
	MaxPoints int
	Logger    log.FieldLogger
	Recorder  Recorder

	points  *pool.Buckets[Vec3]
	portals *pool.Buckets[Portal]
}

// Option configures a Funnel.
type Option func(*Funnel)

// WithMaxPoints sets the output limit.
func WithMaxPoints(n int) Option {
	return func(f *Funnel) { f.MaxPoints = n }
}

// WithLogger sets the logger used for the truncation warning.
func WithLogger(logger log.FieldLogger) Option {
	return func(f *Funnel) { f.Logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(f *Funnel) { f.Recorder = r }
}

// New creates a Funnel.
func New(options ...Option) *Funnel {
	f := &Funnel{
		MaxPoints: DefaultMaxPoints,
		Logger:    log.StandardLogger(),
		points:    pool.New[Vec3](),
		portals:   pool.New[Portal](),
	}
	for _, option := range options {
		option(f)
	}
	if f.MaxPoints < 2 {
		f.MaxPoints = DefaultMaxPoints
	}
	return f
}

var defaultFunnel = New()

func (f *Funnel) maxPoints() int {
	if f.MaxPoints < 2 {
		return DefaultMaxPoints
	}
	return f.MaxPoints
}

func (f *Funnel) logger() log.FieldLogger {
	if f.Logger == nil {
		return log.StandardLogger()
	}
	return f.Logger
}

// RunFunnel runs the default Funnel over portals.
func RunFunnel(portals []Portal) ([]Vec3, bool) {
	return defaultFunnel.Run(portals)
}

// corridor is a read-only view of the portal list with leading portals
// dropped and the winding applied.
type corridor struct {
	portals []Portal
	skip    int // portals[1:skip] are dropped
	winding Winding
}

func (c *corridor) len() int { return len(c.portals) - c.skip + 1 }

func (c *corridor) at(i int) Portal {
	if i == 0 {
		return c.portals[0]
	}
	return c.portals[c.skip+i-1]
}

func (c *corridor) left(i int) Vec3 {
	if c.winding == WindingSwapped {
		return c.at(i).Right
	}
	return c.at(i).Left
}

func (c *corridor) right(i int) Vec3 {
	if c.winding == WindingSwapped {
		return c.at(i).Left
	}
	return c.at(i).Right
}

// drop removes the portal at index 1.
func (c *corridor) drop() { c.skip++ }

// sidePoint is the first point past portal 1 used to tell which side of
// portal 1 the corridor continues on.
func (c *corridor) sidePoint() Vec3 {
	p := c.left(2)
	if p == c.left(1) {
		p = c.right(2)
	}
	return p
}

// Run pulls the corridor taut. portals[0] must be the start point and the
// last portal the end point.
//
// ok is false when fewer than two real portals remain once zero-width and
// non-separating ones are removed; callers then fall back to a straight line.
// Every other input, malformed or not, yields some polyline.
//
// Points are compared exactly. Duplicate portals are only collapsed when their
// coordinates are bit-identical.
func (f *Funnel) Run(portals []Portal) ([]Vec3, bool) {
	out, ok := f.run(portals)
	if f.Recorder != nil {
		f.Recorder.RecordFunnel(len(out), ok)
	}
	return out, ok
}

func (f *Funnel) run(portals []Portal) ([]Vec3, bool) {
	c := corridor{portals: portals, skip: 1}
	if c.len() <= 3 {
		return nil, false
	}

	for c.left(1) == c.left(2) && c.right(1) == c.right(2) {
		c.drop()
		if c.len() <= 3 {
			return nil, false
		}
	}

	// Drop portals that do not separate the start from the rest of the corridor.
	for {
		a, b := c.left(1), c.right(1)
		if !IsColinear(c.left(0), a, b) && clockwiseSide(a, b, c.sidePoint()) != clockwiseSide(a, b, c.left(0)) {
			break
		}
		c.drop()
		if c.len() <= 3 {
			return nil, false
		}
	}

	if !IsClockwise(c.left(0), c.left(1), c.right(1)) && !IsColinear(c.left(0), c.left(1), c.right(1)) {
		c.winding = WindingSwapped
	}

	scratch := f.points.Get(c.len())
	defer func() { f.points.Put(scratch) }()

	apex := c.left(0)
	portalLeft, portalRight := c.left(1), c.right(1)
	apexIndex, leftIndex, rightIndex := 0, 1, 1
	scratch = append(scratch, apex)

	for i := 2; i < c.len(); i++ {
		if len(scratch) > f.maxPoints() {
			f.logger().WithField("points", len(scratch)).Warn("funnel output limit reached, truncating path")
			break
		}
		left, right := c.left(i), c.right(i)

		if TriArea2(apex, portalRight, right) >= 0 {
			if apex == portalRight || TriArea2(apex, portalLeft, right) <= 0 {
				portalRight, rightIndex = right, i
			} else {
				// Right crossed over left: left is a corner.
				scratch = append(scratch, portalLeft)
				apex, apexIndex = portalLeft, leftIndex
				portalLeft, portalRight = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		if TriArea2(apex, portalLeft, left) <= 0 {
			if apex == portalLeft || TriArea2(apex, portalRight, left) >= 0 {
				portalLeft, leftIndex = left, i
			} else {
				scratch = append(scratch, portalRight)
				apex, apexIndex = portalRight, rightIndex
				portalLeft, portalRight = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}
	}
	scratch = append(scratch, c.left(c.len()-1))

	out := make([]Vec3, len(scratch))
	copy(out, scratch)
	return out, true
}
