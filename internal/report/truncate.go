package report

// MaxSeriesPoints caps how many samples a single response carries.
// Longer series are downsampled before being sent over the wire.
const MaxSeriesPoints = 2000

// Downsample reduces a series to at most maxPoints samples by uniform
// striding, always keeping the first and last sample so the endpoints
// of the run survive. A maxPoints below 2 is treated as 2.
func Downsample(data []float64, maxPoints int) []float64 {
	if maxPoints < 2 {
		maxPoints = 2
	}
	if len(data) <= maxPoints {
		return data
	}

	out := make([]float64, 0, maxPoints)
	step := float64(len(data)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints-1; i++ {
		out = append(out, data[int(float64(i)*step)])
	}
	out = append(out, data[len(data)-1])
	return out
}

// DownsamplePair strides a time series and its values together so the
// samples stay aligned. Both slices must have the same length.
func DownsamplePair(times, values []float64, maxPoints int) ([]float64, []float64) {
	if maxPoints < 2 {
		maxPoints = 2
	}
	if len(times) <= maxPoints {
		return times, values
	}

	outT := make([]float64, 0, maxPoints)
	outV := make([]float64, 0, maxPoints)
	step := float64(len(times)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints-1; i++ {
		idx := int(float64(i) * step)
		outT = append(outT, times[idx])
		outV = append(outV, values[idx])
	}
	outT = append(outT, times[len(times)-1])
	outV = append(outV, values[len(values)-1])
	return outT, outV
}
