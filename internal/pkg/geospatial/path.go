package geospatial

import "github.com/midwaymeet/midwaymeet/internal/core/domain"

// Path wraps an ordered coordinate sequence with its cumulative arc lengths,
// so points can be addressed by fraction of total length.
type Path struct {
	Points     []domain.Coordinate
	cumulative []float64 // meters up to each vertex
	total      float64
}

// NewPath computes cumulative distances once for repeated fraction lookups.
func NewPath(points []domain.Coordinate) *Path {
	p := &Path{Points: points}
	if len(points) == 0 {
		return p
	}
	p.cumulative = make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		p.total += Distance(points[i-1], points[i])
		p.cumulative[i] = p.total
	}
	return p
}

// TotalMeters returns the path's total arc length.
func (p *Path) TotalMeters() float64 { return p.total }

// PointAt returns the point at the given fraction of total path length,
// interpolating linearly inside the containing segment. Fractions are
// clamped to [0, 1]; degenerate paths return their first vertex.
func (p *Path) PointAt(frac float64) domain.Coordinate {
	if len(p.Points) == 0 {
		return domain.Coordinate{}
	}
	if len(p.Points) == 1 || p.total == 0 {
		return p.Points[0]
	}
	if frac <= 0 {
		return p.Points[0]
	}
	if frac >= 1 {
		return p.Points[len(p.Points)-1]
	}

	target := frac * p.total
	i := p.segmentAt(target)
	segLen := p.cumulative[i+1] - p.cumulative[i]
	inner := 0.0
	if segLen > 0 {
		inner = (target - p.cumulative[i]) / segLen
	}
	a, b := p.Points[i], p.Points[i+1]
	return domain.Coordinate{
		Lat: a.Lat + (b.Lat-a.Lat)*inner,
		Lng: a.Lng + (b.Lng-a.Lng)*inner,
	}
}

// BearingAt returns the local path bearing (radians) at the given fraction.
func (p *Path) BearingAt(frac float64) float64 {
	if len(p.Points) < 2 {
		return 0
	}
	target := frac * p.total
	i := p.segmentAt(target)
	return Bearing(p.Points[i], p.Points[i+1])
}

// segmentAt returns the index of the segment containing the target arc
// length. Linear scan: overview polylines stay small.
func (p *Path) segmentAt(target float64) int {
	for i := 0; i < len(p.cumulative)-1; i++ {
		if p.cumulative[i+1] >= target {
			return i
		}
	}
	return len(p.Points) - 2
}
