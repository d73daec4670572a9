package funnel

import "math"

// Vec3 is a point in world space. The funnel works in the XZ plane; Y is
// carried through untouched.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// Lerp interpolates between v (t=0) and o (t=1).
func (v Vec3) Lerp(o Vec3, t float64) Vec3 { return v.Add(o.Sub(v).Scale(t)) }

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// TriArea2 returns twice the signed area of triangle abc projected on XZ.
// It is negative when a, b, c turn clockwise.
func TriArea2(a, b, c Vec3) float64 {
	return (b.X-a.X)*(c.Z-a.Z) - (c.X-a.X)*(b.Z-a.Z)
}

// colinearEpsilon absorbs rounding in areas of points that are on one line.
const colinearEpsilon = 1e-9

// IsColinear reports whether a, b and c lie on one line in XZ.
func IsColinear(a, b, c Vec3) bool {
	return math.Abs(TriArea2(a, b, c)) <= colinearEpsilon
}

// IsClockwise reports whether a, b, c turn clockwise in XZ.
func IsClockwise(a, b, c Vec3) bool {
	return TriArea2(a, b, c) < 0
}

// clockwiseSide reports whether p lies strictly on the clockwise side of a->b.
func clockwiseSide(a, b, p Vec3) bool {
	return TriArea2(a, b, p) < 0
}

// PathLength returns the length of the polyline through points.
func PathLength(points []Vec3) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i-1].Dist(points[i])
	}
	return total
}
