package dotosu

import (
	"context"
	"math"
	"testing"
)

func sliderChart(version int, points []TimingPoint, sliders ...Slider) *Primitives {
	return &Primitives{
		Version:          version,
		SliderMultiplier: 1,
		SliderTickRate:   1,
		TimingPoints:     points,
		Sliders:          sliders,
	}
}

var redLine = []TimingPoint{{Offset: 0, BeatLength: 500, Volume: 100, TimingChange: true}}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestSliderTimesNoTicks(t *testing.T) {
	p := sliderChart(14, redLine, Slider{Repeat: 2, PixelLength: 100})
	if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	s := p.Sliders[0]
	if s.SpanDuration != 500 || s.Duration != 1000 {
		t.Errorf("span %v duration %v", s.SpanDuration, s.Duration)
	}
	if len(s.Ticks) != 0 {
		t.Errorf("ticks = %v", s.Ticks)
	}
	want := []ScoringInstant{{InstantRepeat, 500}, {InstantEnd, 964}}
	if len(s.ScoringInstants) != len(want) {
		t.Fatalf("instants = %v", s.ScoringInstants)
	}
	for i := range want {
		if s.ScoringInstants[i] != want[i] {
			t.Errorf("instant %d = %v, want %v", i, s.ScoringInstants[i], want[i])
		}
	}
}

func TestSliderScoringInstantOrder(t *testing.T) {
	p := sliderChart(14, redLine, Slider{Repeat: 2, PixelLength: 250})
	if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	s := p.Sliders[0]
	if len(s.Ticks) != 2 || !near(float64(s.Ticks[0]), 0.4) || !near(float64(s.Ticks[1]), 0.8) {
		t.Fatalf("ticks = %v", s.Ticks)
	}
	want := []ScoringInstant{
		{InstantTick, 500},
		{InstantTick, 1000},
		{InstantRepeat, 1250},
		{InstantTick, 1500}, // second pass runs backwards
		{InstantTick, 2000},
		{InstantEnd, 2464},
	}
	if len(s.ScoringInstants) != len(want) {
		t.Fatalf("instants = %v", s.ScoringInstants)
	}
	for i, w := range want {
		got := s.ScoringInstants[i]
		if got.Kind != w.Kind || !near(got.Time, w.Time) {
			t.Errorf("instant %d = %v %v, want %v %v", i, got.Kind, got.Time, w.Kind, w.Time)
		}
	}
}

func TestSliderTicksFormatVersion(t *testing.T) {
	points := []TimingPoint{
		{Offset: 0, BeatLength: 500, TimingChange: true},
		{Offset: 0, BeatLength: -50},
	}
	tests := []struct {
		version int
		want    []float32
	}{
		{14, []float32{0.5}},
		{5, []float32{0.25, 0.5, 0.75}},
	}
	for _, tt := range tests {
		p := sliderChart(tt.version, points, Slider{Repeat: 1, PixelLength: 400})
		if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
			t.Fatal(err)
		}
		got := p.Sliders[0].Ticks
		if len(got) != len(tt.want) {
			t.Errorf("v%d: ticks = %v, want %v", tt.version, got, tt.want)
			continue
		}
		for i := range got {
			if !near(float64(got[i]), float64(tt.want[i])) {
				t.Errorf("v%d: ticks = %v, want %v", tt.version, got, tt.want)
			}
		}
	}
}

func TestSliderTickBound(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxSliderTicks = 3
	for _, length := range []float32{-500, 0, 50, 1000, 30000} {
		p := sliderChart(14, redLine, Slider{Repeat: 1, PixelLength: length})
		if err := p.ComputeSliderTimes(context.Background(), limits); err != nil {
			t.Fatal(err)
		}
		if n := len(p.Sliders[0].Ticks); n > 3 {
			t.Errorf("length %v: %d ticks", length, n)
		}
	}
}

func TestSliderTickCountRoundsUp(t *testing.T) {
	// 250px at 100px per tick: ceil(2.5)-1 = 2
	p := sliderChart(14, redLine, Slider{Repeat: 1, PixelLength: 250})
	if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	ticks := p.Sliders[0].Ticks
	if len(ticks) != 2 || !near(float64(ticks[0]), 0.4) || !near(float64(ticks[1]), 0.8) {
		t.Errorf("ticks = %v", ticks)
	}
}

func TestSliderNaNTimingHasNoTicks(t *testing.T) {
	points := []TimingPoint{{Offset: 0, BeatLength: float32(math.NaN()), TimingChange: true}}
	p := sliderChart(14, points, Slider{Repeat: 1, PixelLength: 1000})
	if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	s := p.Sliders[0]
	if len(s.Ticks) != 0 {
		t.Errorf("ticks = %v", s.Ticks)
	}
	if s.SpanDuration != 1 {
		t.Errorf("span = %v", s.SpanDuration)
	}
}

func TestSliderZeroRatesStayFinite(t *testing.T) {
	for _, c := range []struct {
		name   string
		sm, tr float32
	}{
		{"multiplier 0", 0, 1},
		{"tick rate 0", 1, 0},
		{"both 0", 0, 0},
		{"negative multiplier", -1, 1},
		{"infinite tick rate", 1, float32(math.Inf(1))},
	} {
		p := sliderChart(14, redLine, Slider{Time: 1000, Repeat: 2, PixelLength: 300})
		p.SliderMultiplier, p.SliderTickRate = c.sm, c.tr
		if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		s := p.Sliders[0]
		if len(s.Ticks) != 0 {
			t.Errorf("%s: ticks = %v", c.name, s.Ticks)
		}
		finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
		if !finite(float64(s.SpanDuration)) || !finite(float64(s.Duration)) {
			t.Errorf("%s: span %v duration %v", c.name, s.SpanDuration, s.Duration)
		}
		for _, in := range s.ScoringInstants {
			if !finite(in.Time) {
				t.Errorf("%s: instant %v", c.name, in)
			}
		}
	}
}

func TestSliderScoringInstantCap(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxSliderScoringInstants = 1
	p := sliderChart(14, redLine, Slider{Repeat: 1, PixelLength: 250})
	err := p.ComputeSliderTimes(context.Background(), limits)
	if CodeOf(err) != ErrTooManyObjects {
		t.Errorf("err = %v", err)
	}
}

func TestSliderTimesNeedTimingPoints(t *testing.T) {
	p := sliderChart(14, nil, Slider{Repeat: 1, PixelLength: 100})
	if err := p.ComputeSliderTimes(context.Background(), DefaultLimits()); CodeOf(err) != ErrNoTimingPoints {
		t.Errorf("err = %v", err)
	}
}

func TestSliderTimesRecomputeIsIdempotent(t *testing.T) {
	p := sliderChart(14, redLine, Slider{Repeat: 3, PixelLength: 250})
	ctx := context.Background()
	if err := p.ComputeSliderTimes(ctx, DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	first := append([]ScoringInstant(nil), p.Sliders[0].ScoringInstants...)
	if err := p.ComputeSliderTimes(ctx, DefaultLimits()); err != nil {
		t.Fatal(err)
	}
	if len(first) != len(p.Sliders[0].ScoringInstants) {
		t.Fatalf("%d instants, then %d", len(first), len(p.Sliders[0].ScoringInstants))
	}
	for i := range first {
		if first[i] != p.Sliders[0].ScoringInstants[i] {
			t.Errorf("instant %d changed", i)
		}
	}
}
