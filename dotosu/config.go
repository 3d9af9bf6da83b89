package dotosu

import (
	"io"
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	LATEST_VERSION = 14

	// osu! refuses charts above 9000 repeats; we clamp instead.
	MAX_SLIDER_REPEATS = 9000
)

// Limits bounds the work a single load may do. Zero values in a YAML file
// keep the defaults.
type Limits struct {
	MaxObjects                 int     `yaml:"max_objects"`
	MaxSliderScoringInstants   int     `yaml:"max_slider_scoring_instants"`
	MaxSliderTicks             int     `yaml:"max_slider_ticks"`
	MaxSliderRepeats           int     `yaml:"max_slider_repeats"`
	SliderCurveMaxLength       float32 `yaml:"slider_curve_max_length"`
	SliderEndInsideCheckOffset float32 `yaml:"slider_end_inside_check_offset"`
	MaxFormatVersion           int     `yaml:"max_format_version"`
	DefaultFormatVersion       int     `yaml:"default_format_version"`
	ApproximateSliderThreshold int     `yaml:"approximate_slider_threshold"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxObjects:                 40000,
		MaxSliderScoringInstants:   32768,
		MaxSliderTicks:             2048,
		MaxSliderRepeats:           MAX_SLIDER_REPEATS,
		SliderCurveMaxLength:       65536 / 2,
		SliderEndInsideCheckOffset: 36,
		MaxFormatVersion:           128,
		DefaultFormatVersion:       LATEST_VERSION,
		ApproximateSliderThreshold: 5000,
	}
}

// WithDefaults fills every unset field from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if l.MaxObjects <= 0 {
		l.MaxObjects = d.MaxObjects
	}
	if l.MaxSliderScoringInstants <= 0 {
		l.MaxSliderScoringInstants = d.MaxSliderScoringInstants
	}
	if l.MaxSliderTicks <= 0 {
		l.MaxSliderTicks = d.MaxSliderTicks
	}
	if l.MaxSliderRepeats <= 0 {
		l.MaxSliderRepeats = d.MaxSliderRepeats
	}
	if l.SliderCurveMaxLength <= 0 {
		l.SliderCurveMaxLength = d.SliderCurveMaxLength
	}
	if l.SliderEndInsideCheckOffset <= 0 {
		l.SliderEndInsideCheckOffset = d.SliderEndInsideCheckOffset
	}
	if l.MaxFormatVersion <= 0 {
		l.MaxFormatVersion = d.MaxFormatVersion
	}
	if l.DefaultFormatVersion <= 0 {
		l.DefaultFormatVersion = d.DefaultFormatVersion
	}
	if l.ApproximateSliderThreshold <= 0 {
		l.ApproximateSliderThreshold = d.ApproximateSliderThreshold
	}
	return l
}

// ReadLimits decodes a YAML limits file from fsys and overlays it on the
// defaults.
func ReadLimits(fsys fs.FS, name string) (Limits, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return DefaultLimits(), errors.Wrapf(err, "could not open %v", name)
	}
	defer f.Close()
	var limits Limits
	if err := yaml.NewDecoder(f).Decode(&limits); err != nil && err != io.EOF {
		return DefaultLimits(), errors.Wrapf(err, "could not decode %v", name)
	}
	return limits.WithDefaults(), nil
}
