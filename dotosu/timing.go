package dotosu

import "math"

// TimingInfo is the tempo and audio state in effect at some time.
type TimingInfo struct {
	Offset         float64
	BeatLengthBase float32 // from the governing uninherited point
	BeatLength     float32 // BeatLengthBase scaled by any inherited multiplier
	Volume         int
	SampleSet      int
	SampleIndex    int
	IsNaN          bool // no ticks may be generated from NaN timing
}

// TimingAt resolves the timing in effect at t. points must be sorted with
// SortTimingPoints.
func TimingAt(t float64, points []TimingPoint) TimingInfo {
	if len(points) == 0 {
		return TimingInfo{BeatLengthBase: 1, BeatLength: 1, Volume: 100}
	}

	// point is the last tempo change, samplePoint the last inherited point
	// and audioPoint the last point of any kind, all at or before t. With
	// nothing at or before t the first point governs.
	point, samplePoint, audioPoint := 0, 0, 0
	for i := range points {
		if points[i].Offset > t {
			continue
		}
		audioPoint = i
		if points[i].TimingChange {
			point = i
		} else {
			samplePoint = i
		}
	}

	mult := float32(1)
	if bl := points[samplePoint].BeatLength; samplePoint > point && bl < 0 {
		mult = clampFloat32(-bl, 10, 1000) / 100
	}

	base := points[point].BeatLength
	return TimingInfo{
		Offset:         points[point].Offset,
		BeatLengthBase: base,
		BeatLength:     base * mult,
		Volume:         points[audioPoint].Volume,
		SampleSet:      points[audioPoint].SampleSet,
		SampleIndex:    points[audioPoint].SampleIndex,
		IsNaN:          isNaN32(points[samplePoint].BeatLength) || isNaN32(base),
	}
}

func isNaN32(f float32) bool { return math.IsNaN(float64(f)) }
