package diffobj

import (
	"math"

	"osudiff/dotosu"
)

type Vec struct {
	X, Y float64
}

func (a Vec) Sub(b Vec) Vec       { return Vec{a.X - b.X, a.Y - b.Y} }
func (a Vec) Add(b Vec) Vec       { return Vec{a.X + b.X, a.Y + b.Y} }
func (a Vec) Scale(f float64) Vec { return Vec{a.X * f, a.Y * f} }
func (a Vec) Len() float64        { return math.Hypot(a.X, a.Y) }
func (a Vec) Dist(b Vec) float64  { return a.Sub(b).Len() }

func toVecs(v2 []dotosu.Vec2) []Vec {
	out := make([]Vec, len(v2))
	for i, p := range v2 {
		out[i] = Vec{float64(p.X), float64(p.Y)}
	}
	return out
}

// Kind values double as the sort ordinal for objects sharing a time.
type Kind int

const (
	Circle  Kind = 1
	Spinner Kind = 2
	Slider  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case Circle:
		return "circle"
	case Spinner:
		return "spinner"
	case Slider:
		return "slider"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Object is a hit object reduced to what difficulty calculation needs.
type Object struct {
	Kind        Kind
	Pos         Vec // after stacking
	OriginalPos Vec
	Time        float64
	EndTime     float64

	// slider only
	SpanDuration    float64
	Repeats         int
	PixelLength     float32
	CurveType       byte
	Curve           *Curve `json:"-"`
	ScoringInstants []dotosu.ScoringInstant

	Stack int
}

func (o *Object) Duration() float64 { return o.EndTime - o.Time }

// startPos is the position stacking compares against: the curve head for
// sliders with geometry, the file position otherwise.
func (o *Object) startPos() Vec {
	if o.Kind != Slider || o.Curve == nil {
		return o.OriginalPos
	}
	return o.Curve.OriginalPointAt(0)
}

// endPos is where the slider ball finishes: back at the head after an even
// number of passes.
func (o *Object) endPos() Vec {
	if o.Kind != Slider || o.Curve == nil {
		return o.OriginalPos
	}
	if o.Repeats%2 == 0 {
		return o.Curve.OriginalPointAt(0)
	}
	return o.Curve.OriginalPointAt(1)
}

// less orders by time, kind, then position.
func less(a, b *Object) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Pos.X != b.Pos.X {
		return a.Pos.X < b.Pos.X
	}
	return a.Pos.Y < b.Pos.Y
}
