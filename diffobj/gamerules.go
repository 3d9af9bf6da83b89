package diffobj

// Stacked objects closer than this are considered on top of each other.
const stackLenience = 3

// Hit circle sprites are 128px wide and drawn slightly oversized.
const (
	circleSpriteSize  = 128
	circleSpriteScale = 1.00041
	stackOffsetScale  = 6.4
)

// Modifiers are the mods that change a chart's difficulty settings.
type Modifiers struct {
	HardRock bool
	Easy     bool
}

// Apply returns cs, ar and od as the mods change them.
func (m Modifiers) Apply(cs, ar, od float32) (float32, float32, float32) {
	if m.HardRock {
		cs = min(cs*1.3, 10)
		ar = min(ar*1.4, 10)
		od = min(od*1.4, 10)
	}
	if m.Easy {
		cs = cs / 2
		ar = ar / 2
		od = od / 2
	}
	return cs, ar, od
}

// MapConstants are the values derived from a chart's difficulty settings that
// object construction needs.
type MapConstants struct {
	Rate         float64
	CircleSize   float32 // after mods
	CircleRadius float64
	ApproachRate float64 // as perceived at Rate
	Preempt      float64 // ms before the hit time the object appears, at Rate
	StackOffset  float64
	Window300    float64
	Window100    float64
	Window50     float64
}

func GetMapConstants(cs, ar, od float32, rate float64) MapConstants {
	if !(rate > 0) {
		rate = 1
	}
	preempt := ApproachRateToPreempt(float64(ar)) / rate
	return MapConstants{
		Rate:         rate,
		CircleSize:   cs,
		CircleRadius: RawCircleDiameter(cs) / 2,
		ApproachRate: PreemptToAR(preempt),
		Preempt:      preempt,
		StackOffset:  StackOffset(cs),
		Window300:    (80 - 6*float64(od)) / rate,
		Window100:    (140 - 8*float64(od)) / rate,
		Window50:     (200 - 10*float64(od)) / rate,
	}
}

func ApproachRateToPreempt(ar float64) float64 {
	if ar < 5 {
		return 1200 + 120*(5-ar)
	} else if ar == 5 {
		return 1200
	} else {
		return 1200 - 150*(ar-5)
	}
}

func PreemptToAR(preempt float64) float64 {
	if preempt > 1200 {
		return 5 - (preempt-1200)/120
	} else if preempt == 1200 {
		return 5
	} else {
		return 5 + (1200-preempt)/150
	}
}

// RawCircleDiameter is the circle diameter in osu!pixels, never negative.
func RawCircleDiameter(cs float32) float64 {
	d := (1 - 0.7*(float64(cs)-5)/5) / 2 * circleSpriteSize * circleSpriteScale
	return max(d, 0)
}

// StackOffset is how far each stack level shifts an object up-left.
func StackOffset(cs float32) float64 {
	return RawCircleDiameter(cs) / circleSpriteSize / circleSpriteScale * stackOffsetScale
}

// stackWindow is how far back in time stacking looks.
func stackWindow(ar, stackLeniency float32) float64 {
	return ApproachRateToPreempt(float64(ar)) * float64(stackLeniency)
}
