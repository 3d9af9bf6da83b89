package dotosu

import (
	"context"
	"image/color"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ---------- primitive model ----------

type TimingPoint struct {
	Offset       float64 // ms, rounded on load
	BeatLength   float32 // negative on inherited points, may be NaN
	Meter        int
	SampleSet    int
	SampleIndex  int
	Volume       int
	TimingChange bool
	Kiai         bool
}

// Combo is the combo bookkeeping attached to circles and sliders.
type Combo struct {
	Number       int
	ColorCounter int
	ColorOffset  int
}

type HitCircle struct {
	X, Y int
	Time int64
	Combo
	HitSound HitSoundFlags
	Sample   HitSampleSpec
}

type Slider struct {
	X, Y int
	Time int64
	Combo
	HitSound HitSoundFlags

	CurveType     byte
	ControlPoints []Vec2 // ControlPoints[0] is always the anchor
	Repeat        int
	PixelLength   float32
	EdgeSounds    []HitSoundFlags
	EdgeSets      []EdgeAdd
	Sample        HitSampleSpec

	// Filled in by ComputeSliderTimes.
	SpanDuration    float32
	Duration        float32
	Ticks           []float32 // percent along the slider, one pass
	ScoringInstants []ScoringInstant
}

type Spinner struct {
	X, Y          int
	Time, EndTime int64
	HitSound      HitSoundFlags
	Sample        HitSampleSpec
}

type BreakPeriod struct{ Start, End int64 }

type Colours struct {
	Combo                  []color.RGBA // Combo1..Combo8 in file order
	SpinnerApproachCircle  *color.RGBA
	SliderBall             *color.RGBA
	SliderBorder           *color.RGBA
	SliderTrackOverride    *color.RGBA
	SongSelectActiveText   *color.RGBA
	SongSelectInactiveText *color.RGBA
}

// Primitives is everything the difficulty pipeline needs from a chart, as
// read from the file and before any geometry is derived.
type Primitives struct {
	Version int

	StackLeniency     float32
	SliderMultiplier  float32
	SliderTickRate    float32
	CircleSize        float32
	ApproachRate      float32
	OverallDifficulty float32
	HPDrainRate       float32

	Breaks       []BreakPeriod
	TimingPoints []TimingPoint
	Colours      Colours

	Circles  []HitCircle
	Sliders  []Slider
	Spinners []Spinner
}

func (p *Primitives) NumObjects() int {
	return len(p.Circles) + len(p.Sliders) + len(p.Spinners)
}

// MaxCombo is the highest reachable combo. Slider ticks have to be computed
// first.
func (p *Primitives) MaxCombo() int {
	combo := len(p.Circles) + len(p.Spinners)
	for i := range p.Sliders {
		repeats := max(p.Sliders[i].Repeat-1, 0)
		combo += 2 + repeats + (repeats+1)*len(p.Sliders[i].Ticks)
	}
	return combo
}

// ---------- combo fold ----------

// comboState is threaded through the hit object lines in file order.
type comboState struct {
	withoutSpinner int
	colorCounter   int
	colorOffset    int
	number         int
}

func newComboState() comboState {
	return comboState{colorCounter: 1, number: 1}
}

// advance folds in the type flags of one successfully scanned hit object,
// whether or not the object is later accepted.
func (s comboState) advance(typ HitObjectTypeFlags) comboState {
	spinner := typ.Has(TypeSpinner)
	if !spinner {
		s.withoutSpinner++
	}
	if typ.Has(TypeNewCombo) {
		s.number = 1
		// the first non-spinner object is always a new combo and keeps
		// counter 1; spinners never bump it
		if !spinner && s.withoutSpinner > 1 {
			s.colorCounter++
		}
		s.colorOffset += typ.ComboSkip()
	}
	return s
}

// take hands out the combo for an accepted circle or slider.
func (s comboState) take() (Combo, comboState) {
	c := Combo{Number: s.number, ColorCounter: s.colorCounter, ColorOffset: s.colorOffset}
	s.number++
	return c, s
}

// ---------- loader ----------

// Loader reads charts. The zero value uses DefaultLimits and the standard
// logrus logger.
type Loader struct {
	Limits Limits
	Log    logrus.FieldLogger
}

func NewLoader(limits Limits, log logrus.FieldLogger) *Loader {
	return &Loader{Limits: limits, Log: log}
}

func (l *Loader) limits() Limits { return l.Limits.WithDefaults() }

func (l *Loader) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

func (l *Loader) LoadPrimitivesFile(ctx context.Context, path string) (*Primitives, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(ErrFileUnreadable, err.Error())
	}
	defer f.Close()
	p, err := l.loadPrimitives(ctx, f, l.log().WithField("path", path))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return p, nil
}

// LoadPrimitives parses the sections the difficulty pipeline needs. It has no
// format version ceiling; use LoadMetadata to reject charts that are too new.
func (l *Loader) LoadPrimitives(ctx context.Context, r io.Reader) (*Primitives, error) {
	return l.loadPrimitives(ctx, r, l.log())
}

func (l *Loader) loadPrimitives(ctx context.Context, r io.Reader, log logrus.FieldLogger) (*Primitives, error) {
	limits := l.limits()
	p := &Primitives{
		Version:           limits.DefaultFormatVersion,
		StackLeniency:     0.7,
		SliderMultiplier:  1,
		SliderTickRate:    1,
		CircleSize:        5,
		ApproachRate:      5,
		OverallDifficulty: 5,
		HPDrainRate:       5,
	}
	foundAR := false
	combo := newComboState()

	sc := newLineScanner(r)
	sec := secHeader
	lineNo := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		lineNo++
		line := sc.Text()
		if isComment(line) {
			continue
		}
		sec = nextSection(line, sec)

		switch sec {
		case secHeader:
			parseHeader(line, &p.Version)

		case secGeneral:
			ParseValue(line, "StackLeniency", Float32(&p.StackLeniency))

		case secDifficulty:
			ParseValue(line, "SliderMultiplier", Float32(&p.SliderMultiplier))
			ParseValue(line, "SliderTickRate", Float32(&p.SliderTickRate))
			ParseValue(line, "CircleSize", Float32(&p.CircleSize))
			ParseValue(line, "HPDrainRate", Float32(&p.HPDrainRate))
			if ParseValue(line, "OverallDifficulty", Float32(&p.OverallDifficulty)) && !foundAR {
				p.ApproachRate = p.OverallDifficulty
			}
			if ParseValue(line, "ApproachRate", Float32(&p.ApproachRate)) {
				foundAR = true
			}

		case secEvents:
			if b, ok := parseBreak(line); ok {
				p.Breaks = append(p.Breaks, b)
			}

		case secTimingPoints:
			if tp, ok := parseTimingPoint(line); ok {
				p.TimingPoints = append(p.TimingPoints, tp)
			}

		case secColours:
			parseColour(line, &p.Colours)

		case secHitObjects:
			var err error
			combo, err = p.addHitObject(line, combo, limits)
			if err != nil {
				log.WithField("line", lineNo).Debug(err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(ErrFileUnreadable, err.Error())
	}

	if p.NumObjects() > limits.MaxObjects {
		return nil, errors.Wrapf(ErrTooManyObjects, "%d hit objects", p.NumObjects())
	}
	SortTimingPoints(p.TimingPoints)
	return p, nil
}

func parseBreak(line string) (BreakPeriod, bool) {
	var typ, start, end int64
	if !Parse(line, Int64(&typ), Sep(','), Int64(&start), Sep(','), Int64(&end)) || typ != 2 {
		return BreakPeriod{}, false
	}
	return BreakPeriod{Start: start, End: end}, true
}

// parseTimingPoint accepts the 8, 7 and 2 field layouts:
// offset,beatLength[,meter,sampleSet,sampleIndex,volume,timingChange[,kiai]]
func parseTimingPoint(line string) (TimingPoint, bool) {
	var (
		offset                         float64
		beatLength                     float32
		meter, set, index, vol, change int
		kiai                           int
	)
	head := []Token{Float(&offset), Sep(','), FloatNaN(&beatLength)}
	long := append(head[:3:3],
		Sep(','), Int(&meter), Sep(','), Int(&set), Sep(','), Int(&index),
		Sep(','), Int(&vol), Sep(','), Int(&change))

	if Parse(line, append(long[:len(long):len(long)], Sep(','), Int(&kiai))...) || Parse(line, long...) {
		return TimingPoint{
			Offset:       math.Round(offset),
			BeatLength:   beatLength,
			Meter:        meter,
			SampleSet:    set,
			SampleIndex:  index,
			Volume:       vol,
			TimingChange: change == 1,
			Kiai:         kiai > 0,
		}, true
	}
	if Parse(line, head...) {
		return TimingPoint{
			Offset:       math.Round(offset),
			BeatLength:   beatLength,
			Meter:        4,
			Volume:       100,
			TimingChange: true,
		}, true
	}
	return TimingPoint{}, false
}

var namedColours = []struct {
	key string
	get func(*Colours) **color.RGBA
}{
	{"SpinnerApproachCircle", func(c *Colours) **color.RGBA { return &c.SpinnerApproachCircle }},
	{"SliderBall", func(c *Colours) **color.RGBA { return &c.SliderBall }},
	{"SliderBorder", func(c *Colours) **color.RGBA { return &c.SliderBorder }},
	{"SliderTrackOverride", func(c *Colours) **color.RGBA { return &c.SliderTrackOverride }},
	{"SongSelectActiveText", func(c *Colours) **color.RGBA { return &c.SongSelectActiveText }},
	{"SongSelectInactiveText", func(c *Colours) **color.RGBA { return &c.SongSelectInactiveText }},
}

func parseColour(line string, c *Colours) {
	var n, r, g, b int
	rgb := []Token{Int(&r), Sep(','), Int(&g), Sep(','), Int(&b)}
	if Parse(line, append([]Token{Label("Combo"), Int(&n), Sep(':')}, rgb...)...) {
		if n >= 1 && n <= 8 {
			c.Combo = append(c.Combo, rgba(r, g, b))
		}
		return
	}
	for _, nc := range namedColours {
		if ParseValue(line, nc.key, rgb...) {
			v := rgba(r, g, b)
			*nc.get(c) = &v
			return
		}
	}
}

func rgba(r, g, b int) color.RGBA {
	return color.RGBA{
		R: uint8(clampInt(r, 0, 255)),
		G: uint8(clampInt(g, 0, 255)),
		B: uint8(clampInt(b, 0, 255)),
		A: 255,
	}
}

// addHitObject parses one [HitObjects] line. A non-nil error means the
// object was dropped; the returned combo state is valid either way.
func (p *Primitives) addHitObject(line string, combo comboState, limits Limits) (comboState, error) {
	var (
		x, y, typ, hs int
		t             int64
	)
	tail := []Token{Sep(','), Int64(&t), Sep(','), Int(&typ), Sep(','), Int(&hs)}
	if !Parse(line, append([]Token{Int(&x), Sep(','), Int(&y)}, tail...)...) {
		var fx, fy float64
		if !Parse(line, append([]Token{rawFloat(&fx), Sep(','), rawFloat(&fy)}, tail...)...) {
			return combo, nil
		}
		x, y = coordinate(fx), coordinate(fy)
	}

	flags := HitObjectTypeFlags(typ)
	combo = combo.advance(flags)

	switch {
	case flags.Has(TypeCircle):
		var c HitCircle
		c.Combo, combo = combo.take()
		c.X, c.Y, c.Time, c.HitSound = x, y, t, HitSoundFlags(hs)
		if fields := strings.Split(line, ","); len(fields) > 5 {
			c.Sample = parseHitSample(fields[5])
		}
		p.Circles = append(p.Circles, c)

	case flags.Has(TypeSlider):
		s, err := parseSlider(line, x, y, limits)
		if err != nil {
			return combo, err
		}
		s.Combo, combo = combo.take()
		s.Time, s.HitSound = t, HitSoundFlags(hs)
		p.Sliders = append(p.Sliders, s)

	case flags.Has(TypeSpinner):
		fields := strings.Split(line, ",")
		if len(fields) < 6 {
			return combo, errors.Errorf("invalid spinner: %q", line)
		}
		s := Spinner{X: x, Y: y, Time: t, HitSound: HitSoundFlags(hs)}
		s.EndTime = int64(parseFloat32(fields[5], 0))
		if len(fields) > 6 {
			s.Sample = parseHitSample(fields[6])
		}
		p.Spinners = append(p.Spinners, s)
	}
	return combo, nil
}

// coordinate truncates a float coordinate, mapping anything non-finite or
// outside the int32 range to 0.
func coordinate(f float64) int {
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// parseSlider reads
// x,y,time,type,hitSound,curveType|x:y|...,repeat,pixelLength[,edgeSounds[,edgeSets[,sample]]]
func parseSlider(line string, x, y int, limits Limits) (Slider, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 8 {
		return Slider{}, errors.Errorf("invalid slider: %q", line)
	}
	sanity := limits.SliderCurveMaxLength

	curve := strings.Split(fields[5], "|")
	var points []Vec2
	for _, tok := range curve[1:] {
		xy := strings.Split(tok, ":")
		if len(xy) != 2 || strings.ContainsAny(tok, "eE") {
			continue
		}
		points = append(points, Vec2{
			X: int(clampFloat32(parseFloat32(xy[0], 0), -sanity, sanity)),
			Y: int(clampFloat32(parseFloat32(xy[1], 0), -sanity, sanity)),
		})
	}

	// old charts repeat the anchor as the first control point
	anchor := Vec2{
		X: int(clampFloat32(float32(x), -sanity, sanity)),
		Y: int(clampFloat32(float32(y), -sanity, sanity)),
	}
	if len(points) == 0 || points[0] != anchor {
		points = append([]Vec2{anchor}, points...)
	}
	if len(points) < 2 {
		points = append(points, points[0])
	}

	s := Slider{
		X:             x,
		Y:             y,
		ControlPoints: points,
		Repeat:        clampInt(int(parseFloat32(fields[6], 0)), 0, limits.MaxSliderRepeats),
		PixelLength:   clampFloat32(parseFloat32(fields[7], 0), -sanity, sanity),
	}
	if fields[5] != "" {
		s.CurveType = fields[5][0]
	}
	if len(fields) > 8 && strings.TrimSpace(fields[8]) != "" {
		for _, n := range strings.Split(fields[8], "|") {
			s.EdgeSounds = append(s.EdgeSounds, HitSoundFlags(parseInt(n, 0)))
		}
	}
	if len(fields) > 9 && strings.TrimSpace(fields[9]) != "" {
		for _, e := range strings.Split(fields[9], "|") {
			s.EdgeSets = append(s.EdgeSets, parseEdgeAddPair(e))
		}
	}
	if len(s.EdgeSounds) > 0 && len(s.EdgeSets) > 0 && len(s.EdgeSounds) != len(s.EdgeSets) {
		return Slider{}, errors.Errorf("slider has %d edge sounds but %d edge sets: %q",
			len(s.EdgeSounds), len(s.EdgeSets), line)
	}
	if len(fields) > 10 {
		s.Sample = parseHitSample(fields[10])
	}
	return s, nil
}

// SortTimingPoints orders points by offset. Ties put uninherited points
// first, then go by sample set, sample index and kiai (off first).
func SortTimingPoints(points []TimingPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if ua, ub := a.BeatLength >= 0, b.BeatLength >= 0; ua != ub {
			return ua
		}
		if a.SampleSet != b.SampleSet {
			return a.SampleSet < b.SampleSet
		}
		if a.SampleIndex != b.SampleIndex {
			return a.SampleIndex < b.SampleIndex
		}
		return !a.Kiai && b.Kiai
	})
}
