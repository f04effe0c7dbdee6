package telemetry

import "sort"

// Channels holds one lap's signals interpolated onto a shared distance axis.
// Continuous channels are piecewise-linear between the bounding real
// samples; Gear and DRS are stepped from the nearest earlier sample so
// categorical values are never blended.
type Channels struct {
	// Time is lap-relative seconds at each axis point.
	Time     []float64
	Speed    []float64
	Throttle []float64
	Brake    []float64

	X, Y        []float64
	HasPosition bool

	Gear []int
	DRS  []int
}

// Alignment is the result of resampling two laps onto one distance axis.
type Alignment struct {
	// Distance is the common axis, meters from lap start, covering the
	// intersection of the two laps' recorded ranges.
	Distance []float64
	A, B     Channels
}

// AlignLaps resamples two laps onto a common distance axis with the given
// step. The axis spans the intersection of the laps' distance ranges; no
// extrapolation is performed on either side. Fails with
// IncomparableLapsError when the ranges do not overlap.
func AlignLaps(a, b Lap, stepM float64) (*Alignment, error) {
	if len(a.Samples) == 0 {
		return nil, &EmptyLapError{Driver: a.Driver, LapNumber: a.LapNumber}
	}
	if len(b.Samples) == 0 {
		return nil, &EmptyLapError{Driver: b.Driver, LapNumber: b.LapNumber}
	}
	if stepM <= 0 {
		stepM = DefaultConfig().ResampleStepM
	}

	lo := a.Samples[0].Distance
	if d := b.Samples[0].Distance; d > lo {
		lo = d
	}
	hi := a.Samples[len(a.Samples)-1].Distance
	if d := b.Samples[len(b.Samples)-1].Distance; d < hi {
		hi = d
	}
	if hi <= lo {
		return nil, &IncomparableLapsError{Driver1: a.Driver, Driver2: b.Driver}
	}

	axis := buildAxis(lo, hi, stepM)
	return &Alignment{
		Distance: axis,
		A:        resampleChannels(a.Samples, axis),
		B:        resampleChannels(b.Samples, axis),
	}, nil
}

// buildAxis returns lo, lo+step, ... and always includes hi as the final
// point so segment partitions cover the full comparable range.
func buildAxis(lo, hi, step float64) []float64 {
	const eps = 1e-9
	axis := make([]float64, 0, int((hi-lo)/step)+2)
	for d := lo; d <= hi+eps; d += step {
		axis = append(axis, d)
	}
	if axis[len(axis)-1] < hi-eps {
		axis = append(axis, hi)
	} else {
		axis[len(axis)-1] = hi
	}
	return axis
}

func resampleChannels(samples []Sample, axis []float64) Channels {
	t0 := samples[0].Time
	ch := Channels{
		Time:     make([]float64, len(axis)),
		Speed:    make([]float64, len(axis)),
		Throttle: make([]float64, len(axis)),
		Brake:    make([]float64, len(axis)),
		Gear:     make([]int, len(axis)),
		DRS:      make([]int, len(axis)),
	}
	ch.HasPosition = samples[0].HasPosition
	if ch.HasPosition {
		ch.X = make([]float64, len(axis))
		ch.Y = make([]float64, len(axis))
	}

	for i, d := range axis {
		lower, upper := bounding(samples, d)
		ch.Time[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.Time - t0 })
		ch.Speed[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.Speed })
		ch.Throttle[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.Throttle })
		ch.Brake[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.Brake })
		if ch.HasPosition {
			ch.X[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.X })
			ch.Y[i] = lerp(samples, lower, upper, d, func(s Sample) float64 { return s.Y })
		}
		// Step interpolation for the categorical channels.
		ch.Gear[i] = samples[lower].Gear
		ch.DRS[i] = samples[lower].DRS
	}
	return ch
}

// bounding returns the indices of the nearest samples at or below and at or
// above distance d. Outside the recorded range both indices clamp to the
// nearest endpoint.
func bounding(samples []Sample, d float64) (lower, upper int) {
	upper = sort.Search(len(samples), func(i int) bool { return samples[i].Distance >= d })
	if upper == len(samples) {
		return len(samples) - 1, len(samples) - 1
	}
	if upper == 0 {
		return 0, 0
	}
	return upper - 1, upper
}

func lerp(samples []Sample, lower, upper int, d float64, value func(Sample) float64) float64 {
	lo, hi := samples[lower], samples[upper]
	if lower == upper || hi.Distance == lo.Distance {
		return value(lo)
	}
	frac := (d - lo.Distance) / (hi.Distance - lo.Distance)
	return value(lo) + frac*(value(hi)-value(lo))
}
