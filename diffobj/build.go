package diffobj

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"osudiff/dotosu"
)

type Options struct {
	Limits dotosu.Limits

	// SpeedMultiplier divides every time. Values that are not positive
	// count as 1.
	SpeedMultiplier float64

	// Approximate skips slider paths, scoring instants and stacking. It is
	// switched on regardless for charts with at least
	// Limits.ApproximateSliderThreshold sliders.
	Approximate     bool
	DisableStacking bool

	// ApproachRate and CircleSize replace the chart's values when set. Mods
	// apply on top of either.
	ApproachRate *float32
	CircleSize   *float32
	Mods         Modifiers
}

// difficulty returns the cs, ar and od that stacking and the map constants
// use.
func (o Options) difficulty(p *dotosu.Primitives) (cs, ar, od float32) {
	cs, ar, od = p.CircleSize, p.ApproachRate, p.OverallDifficulty
	if o.CircleSize != nil {
		cs = *o.CircleSize
	}
	if o.ApproachRate != nil {
		ar = *o.ApproachRate
	}
	return o.Mods.Apply(cs, ar, od)
}

type Result struct {
	Objects     []Object
	Approximate bool
	MaxCombo    int
	LengthMS    float64 // end of the last object, after speed scaling
	Constants   MapConstants
}

// Load reads the chart at path and builds its difficulty objects.
func Load(ctx context.Context, loader *dotosu.Loader, path string, opts Options) (*Result, error) {
	p, err := loader.LoadPrimitivesFile(ctx, path)
	if err != nil {
		return nil, err
	}
	res, err := Build(ctx, p, opts)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return res, nil
}

// Build turns parsed primitives into a sorted, stacked and time scaled
// object sequence. p's sliders get their timing filled in.
func Build(ctx context.Context, p *dotosu.Primitives, opts Options) (*Result, error) {
	limits := opts.Limits.WithDefaults()
	approx := opts.Approximate || len(p.Sliders) >= limits.ApproximateSliderThreshold
	cs, ar, od := opts.difficulty(p)

	if err := p.ComputeSliderTimes(ctx, limits); err != nil {
		return nil, err
	}
	if p.NumObjects() == 0 {
		return nil, dotosu.ErrNoHitObjects
	}

	objs := make([]Object, 0, p.NumObjects())
	for _, c := range p.Circles {
		pos := Vec{float64(c.X), float64(c.Y)}
		t := float64(c.Time)
		objs = append(objs, Object{Kind: Circle, Pos: pos, OriginalPos: pos, Time: t, EndTime: t})
	}
	for i := range p.Sliders {
		if ctx.Err() != nil {
			return nil, dotosu.ErrCancelled
		}
		objs = append(objs, newSlider(&p.Sliders[i], approx))
	}
	for _, s := range p.Spinners {
		pos := Vec{float64(s.X), float64(s.Y)}
		objs = append(objs, Object{
			Kind:        Spinner,
			Pos:         pos,
			OriginalPos: pos,
			Time:        float64(s.Time),
			EndTime:     float64(s.EndTime),
		})
	}

	sort.SliceStable(objs, func(i, j int) bool { return less(&objs[i], &objs[j]) })

	if !approx && !opts.DisableStacking {
		if err := Stack(ctx, objs, p.Version, p.StackLeniency, ar); err != nil {
			return nil, err
		}
		if err := ApplyStackOffsets(ctx, objs, cs); err != nil {
			return nil, err
		}
	}

	speed := opts.SpeedMultiplier
	if err := ScaleTime(ctx, objs, speed); err != nil {
		return nil, err
	}

	res := &Result{
		Objects:     objs,
		Approximate: approx,
		MaxCombo:    p.MaxCombo(),
		Constants:   GetMapConstants(cs, ar, od, speed),
	}
	for i := range objs {
		res.LengthMS = max(res.LengthMS, objs[i].EndTime)
	}
	return res, nil
}

func newSlider(s *dotosu.Slider, approx bool) Object {
	pos := Vec{float64(s.X), float64(s.Y)}
	o := Object{
		Kind:         Slider,
		Pos:          pos,
		OriginalPos:  pos,
		Time:         float64(s.Time),
		EndTime:      float64(s.Time) + math.Trunc(float64(s.Duration)),
		SpanDuration: float64(s.SpanDuration),
		Repeats:      s.Repeat,
		PixelLength:  s.PixelLength,
		CurveType:    s.CurveType,
	}
	if approx {
		return o
	}
	if len(s.ControlPoints) > 1 {
		o.Curve = NewCurve(s.CurveType, toVecs(s.ControlPoints), float64(s.PixelLength))
	}
	o.ScoringInstants = append([]dotosu.ScoringInstant(nil), s.ScoringInstants...)
	return o
}

// ScaleTime divides every time field by speed. Positions and paths are left
// alone. A speed of 1, or one that is not positive, does nothing.
func ScaleTime(ctx context.Context, objs []Object, speed float64) error {
	if speed == 1 || !(speed > 0) {
		return nil
	}
	for i := range objs {
		if ctx.Err() != nil {
			return dotosu.ErrCancelled
		}
		o := &objs[i]
		o.Time /= speed
		o.EndTime /= speed
		o.SpanDuration /= speed
		for j := range o.ScoringInstants {
			o.ScoringInstants[j].Time /= speed
		}
	}
	return nil
}
