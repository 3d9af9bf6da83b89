package dotosu

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
)

type InstantKind int

// Instants at equal times are ordered by kind.
const (
	InstantRepeat InstantKind = iota
	InstantTick
	InstantEnd
)

func (k InstantKind) String() string {
	switch k {
	case InstantRepeat:
		return "repeat"
	case InstantTick:
		return "tick"
	case InstantEnd:
		return "end"
	}
	return "unknown"
}

// ScoringInstant is a moment on a slider where the cursor has to be inside
// the follow circle with a key held.
type ScoringInstant struct {
	Kind InstantKind
	Time float64
}

func sliderTickDistance(sm, tr float32) float32 { return 100 * sm / tr }

func sliderVelocity(ti TimingInfo, sm, tr float32) float32 {
	if ti.BeatLength > 0 {
		return sliderTickDistance(sm, tr) * tr * (1000 / ti.BeatLength)
	}
	return sliderTickDistance(sm, tr) * tr
}

// timingMultiplier is the inherited point scale, used for tick spacing.
func timingMultiplier(ti TimingInfo) float32 {
	base := ti.BeatLengthBase
	if base == 0 {
		base = 1
	}
	return ti.BeatLength / base
}

// ComputeSliderTimes fills in durations, ticks and scoring instants for
// every slider. Existing tick and instant data is replaced.
func (p *Primitives) ComputeSliderTimes(ctx context.Context, limits Limits) error {
	limits = limits.WithDefaults()
	if len(p.TimingPoints) == 0 {
		return ErrNoTimingPoints
	}
	sm, tr := p.SliderMultiplier, p.SliderTickRate
	// a zero, negative or infinite rate gives no tick spacing
	hasTicks := validRate(sm) && validRate(tr)

	for i := range p.Sliders {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		s := &p.Sliders[i]
		s.Ticks = s.Ticks[:0]
		s.ScoringInstants = s.ScoringInstants[:0]

		ti := TimingAt(float64(s.Time), p.TimingPoints)
		s.SpanDuration = ti.BeatLength * (s.PixelLength / sm) / 100
		if !(s.SpanDuration >= 1) || math.IsInf(float64(s.SpanDuration), 0) {
			s.SpanDuration = 1
		}
		s.Duration = s.SpanDuration * float32(s.Repeat)

		if hasTicks {
			s.Ticks = sliderTicks(s, ti, p.Version, sm, tr, limits.MaxSliderTicks)
		}

		if abs(s.Repeat)*len(s.Ticks) > limits.MaxSliderScoringInstants {
			return errors.Wrapf(ErrTooManyObjects, "slider at %d: %d repeats with %d ticks",
				s.Time, s.Repeat, len(s.Ticks))
		}
		s.ScoringInstants = scoringInstants(s, limits.SliderEndInsideCheckOffset)
	}
	return nil
}

func sliderTicks(s *Slider, ti TimingInfo, version int, sm, tr float32, maxTicks int) []float32 {
	minDistFromEnd := 0.01 * sliderVelocity(ti, sm, tr)
	tickPixels := sliderTickDistance(sm, tr)
	if version >= 8 {
		tickPixels /= timingMultiplier(ti)
	}
	length := s.PixelLength
	if length == 0 {
		length = 1
	}
	pct := tickPixels / length

	if ti.IsNaN || isNaN32(s.PixelLength) || isNaN32(tickPixels) {
		return s.Ticks
	}
	count := maxTicks
	if c := math.Ceil(float64(s.PixelLength/tickPixels)) - 1; c < float64(maxTicks) {
		count = int(c)
	}
	if count <= 0 {
		return s.Ticks
	}

	ticks := s.Ticks
	toEnd := s.PixelLength
	t := pct
	for i := 0; i < count; i, t = i+1, t+pct {
		toEnd -= tickPixels
		if toEnd <= minDistFromEnd {
			break
		}
		ticks = append(ticks, t)
	}
	return ticks
}

func scoringInstants(s *Slider, endInsideOffset float32) []ScoringInstant {
	out := s.ScoringInstants
	start, span := float32(s.Time), s.SpanDuration

	// the head is judged as a circle, so the first instant is the first
	// repeat arrow
	for i := 0; i < s.Repeat-1; i++ {
		out = append(out, ScoringInstant{InstantRepeat, float64(start + span*float32(i+1))})
	}
	for i := 0; i < s.Repeat; i++ {
		for _, tick := range s.Ticks {
			pct := tick
			if (i+1)%2 == 0 {
				pct = 1 - tick
			}
			out = append(out, ScoringInstant{InstantTick, float64(start + span*float32(i) + pct*span)})
		}
	}
	// may land before the last tick on very short sliders
	end := max(start+s.Duration/2, start+s.Duration-endInsideOffset)
	out = append(out, ScoringInstant{InstantEnd, float64(end)})

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func validRate(v float32) bool {
	return v > 0 && !math.IsInf(float64(v), 0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
