package telemetry

import (
	"fmt"
	"math"
	"strings"
)

// Viewport dimensions for rendered track geometry. Coordinates are
// normalized so the circuit fits this box regardless of the source units.
const (
	viewportWidth  = 800.0
	viewportHeight = 600.0
)

// DominanceResult partitions the comparable distance range of two laps into
// equal-length segments, each attributed to whichever driver was faster
// through it, with rendered path geometry.
type DominanceResult struct {
	Sections      []Segment `json:"sections"`
	Driver1       string    `json:"driver1_code"`
	Driver2       string    `json:"driver2_code"`
	CircuitLayout string    `json:"circuit_layout,omitempty"`

	// StartDistance and EndDistance bound the comparable range the
	// sections cover.
	StartDistance float64 `json:"start_distance"`
	EndDistance   float64 `json:"end_distance"`
}

// SegmentTrack computes track dominance between two laps. segments controls
// the partition granularity; values below 1 fall back to the configured
// default. Per-point cumulative time is derived by integrating 1/speed over
// distance, so a speed signal is sufficient; position samples feed only the
// rendered geometry and the geometry is omitted when they are absent.
func SegmentTrack(lap1, lap2 Lap, segments int, cfg Config) (*DominanceResult, error) {
	if segments < 1 {
		segments = cfg.DominanceSegments
	}

	al, err := AlignLaps(lap1, lap2, cfg.ResampleStepM)
	if err != nil {
		return nil, err
	}

	t1 := cumulativeTime(al.Distance, al.A.Speed)
	t2 := cumulativeTime(al.Distance, al.B.Speed)

	lo := al.Distance[0]
	hi := al.Distance[len(al.Distance)-1]
	segLen := (hi - lo) / float64(segments)

	var norm *viewportTransform
	if al.A.HasPosition {
		norm = fitViewport(al.A.X, al.A.Y)
	}

	res := &DominanceResult{
		Driver1:       lap1.Driver,
		Driver2:       lap2.Driver,
		StartDistance: lo,
		EndDistance:   hi,
	}
	if norm != nil {
		res.CircuitLayout = svgPath(norm.apply(al.A.X, al.A.Y))
	}

	for i := 0; i < segments; i++ {
		start := lo + float64(i)*segLen
		end := start + segLen
		if i == segments-1 {
			end = hi // absorb rounding so the partition has no tail gap
		}

		// Time each driver spent inside the segment; positive advantage
		// means driver1 gained time here.
		d1 := interpAxis(al.Distance, t1, end) - interpAxis(al.Distance, t1, start)
		d2 := interpAxis(al.Distance, t2, end) - interpAxis(al.Distance, t2, start)
		advSeconds := d2 - d1

		seg := Segment{
			ID:               fmt.Sprintf("segment_%d", i+1),
			Name:             fmt.Sprintf("Segment %d", i+1),
			Type:             "sector",
			StartDistance:    start,
			EndDistance:      end,
			AdvantageSeconds: advSeconds,
			Advantage:        clamp(advSeconds/cfg.DominanceFullScaleS, -1, 1),
		}
		if norm != nil {
			xs, ys := sliceRange(al.Distance, al.A.X, al.A.Y, start, end)
			seg.Path = svgPath(norm.apply(xs, ys))
		}
		res.Sections = append(res.Sections, seg)
	}
	return res, nil
}

// cumulativeTime integrates 1/speed over the distance axis (trapezoidal),
// yielding seconds from the start of the comparable range at each point.
// Speeds arrive in km/h; near-zero speeds are floored to keep the integral
// finite on laps with standing starts.
func cumulativeTime(axis, speedKmh []float64) []float64 {
	const minSpeedMps = 0.5
	t := make([]float64, len(axis))
	for i := 1; i < len(axis); i++ {
		dx := axis[i] - axis[i-1]
		v0 := math.Max(speedKmh[i-1]/3.6, minSpeedMps)
		v1 := math.Max(speedKmh[i]/3.6, minSpeedMps)
		t[i] = t[i-1] + dx*0.5*(1/v0+1/v1)
	}
	return t
}

// interpAxis linearly interpolates values (parallel to axis) at distance d.
func interpAxis(axis, values []float64, d float64) float64 {
	if d <= axis[0] {
		return values[0]
	}
	if d >= axis[len(axis)-1] {
		return values[len(values)-1]
	}
	// Axis is uniform except possibly the final point; scan from the
	// estimated index to stay O(1) for the common case.
	step := axis[1] - axis[0]
	i := int((d - axis[0]) / step)
	if i >= len(axis)-1 {
		i = len(axis) - 2
	}
	for axis[i+1] < d {
		i++
	}
	for axis[i] > d {
		i--
	}
	frac := (d - axis[i]) / (axis[i+1] - axis[i])
	return values[i] + frac*(values[i+1]-values[i])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sliceRange returns the position points whose axis distance falls inside
// [start, end]. Boundary points are shared between adjacent segments.
func sliceRange(axis, xs, ys []float64, start, end float64) ([]float64, []float64) {
	var ox, oy []float64
	for i, d := range axis {
		if d >= start && d <= end {
			ox = append(ox, xs[i])
			oy = append(oy, ys[i])
		}
	}
	return ox, oy
}

// viewportTransform maps world coordinates into the SVG viewport.
type viewportTransform struct {
	scale      float64
	xMin, yMin float64
}

func fitViewport(xs, ys []float64) *viewportTransform {
	if len(xs) == 0 {
		return nil
	}
	xMin, xMax := xs[0], xs[0]
	yMin, yMax := ys[0], ys[0]
	for i := range xs {
		xMin = math.Min(xMin, xs[i])
		xMax = math.Max(xMax, xs[i])
		yMin = math.Min(yMin, ys[i])
		yMax = math.Max(yMax, ys[i])
	}
	scale := 1.0
	if xMax > xMin && yMax > yMin {
		scale = math.Min(viewportWidth/(xMax-xMin), viewportHeight/(yMax-yMin))
	}
	return &viewportTransform{scale: scale, xMin: xMin, yMin: yMin}
}

func (t *viewportTransform) apply(xs, ys []float64) [][2]float64 {
	pts := make([][2]float64, len(xs))
	for i := range xs {
		pts[i] = [2]float64{(xs[i] - t.xMin) * t.scale, (ys[i] - t.yMin) * t.scale}
	}
	return pts
}

// svgPath renders points as SVG path data: "M x y L x y ...".
func svgPath(pts [][2]float64) string {
	if len(pts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %.2f %.2f", pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		fmt.Fprintf(&b, " L %.2f %.2f", p[0], p[1])
	}
	return b.String()
}
