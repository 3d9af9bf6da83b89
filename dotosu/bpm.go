package dotosu

import "math"

type BPMInfo struct {
	Min, Max, MostCommon int
}

// BPMSummary derives the tempo range from sorted timing points. MostCommon
// is the BPM that covers the most time; the first point counts from 0 like
// osu!stable does.
func BPMSummary(points []TimingPoint) BPMInfo {
	if len(points) == 0 {
		return BPMInfo{}
	}

	type span struct{ bpm, duration int }
	var spans []span

	lastTime := points[len(points)-1].Offset
	for i, tp := range points {
		if tp.Offset > lastTime || !(tp.BeatLength > 0) || math.IsInf(float64(tp.BeatLength), 0) {
			continue
		}
		cur := tp.Offset
		if i == 0 {
			cur = 0
		}
		next := lastTime
		if i < len(points)-1 {
			next = points[i+1].Offset
		}

		bpm := int(math.Round(60000 / float64(tp.BeatLength)))
		duration := int(max(next-cur, 0))

		found := false
		for j := range spans {
			if spans[j].bpm == bpm {
				spans[j].duration += duration
				found = true
				break
			}
		}
		if !found {
			spans = append(spans, span{bpm, duration})
		}
	}
	if len(spans) == 0 {
		return BPMInfo{}
	}

	info := BPMInfo{Min: math.MaxInt, MostCommon: spans[0].bpm}
	longest := -1
	for _, s := range spans {
		info.Min = min(info.Min, s.bpm)
		info.Max = max(info.Max, s.bpm)
		if s.duration > longest {
			longest = s.duration
			info.MostCommon = s.bpm
		}
	}
	return info
}
