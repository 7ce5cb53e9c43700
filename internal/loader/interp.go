package loader

import "github.com/meterhub/forecastd/internal/forecast"

// resample evaluates the series at each requested time by linear
// interpolation over the series' own timestamps. Times outside the
// series range clamp to the nearest boundary sample, matching standard
// monotonic-interpolation semantics. The series must be in
// chronological order and non-empty; the result always has one value
// per requested time.
func resample(series []forecast.Point, times []int64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = interpolate(series, t)
	}
	return out
}

func interpolate(series []forecast.Point, t int64) float64 {
	first, last := series[0], series[len(series)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}

	// Binary search for the first sample at or after t.
	lo, hi := 0, len(series)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if series[mid].Time < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	upper := series[lo]
	if upper.Time == t {
		return upper.Value
	}
	lower := series[lo-1]
	if upper.Time == lower.Time {
		return lower.Value
	}

	frac := float64(t-lower.Time) / float64(upper.Time-lower.Time)
	return lower.Value + frac*(upper.Value-lower.Value)
}
