package diffobj

import (
	"math"
	"sort"
)

// === constants chosen to mirror osu!lazer PathApproximator ===
const (
	bezTolSq   = 0.25 * 0.25 // BEZIER_TOLERANCE^2
	arcTol     = 0.10        // CIRCULAR_ARC_TOLERANCE (sagitta)
	catmullDet = 50          // CATMULL_DETAIL (samples per segment)
)

// Curve is a slider path flattened to a polyline whose arc length matches
// the slider's pixel length.
type Curve struct {
	Type byte

	length   float64
	original []Vec     // before stacking
	points   []Vec     // original shifted by the stack offset
	cum      []float64 // arc length at each point
}

// NewCurve approximates the path through controls. With a positive
// pixelLength the path is cut short, or its last segment extended, to
// exactly that length.
func NewCurve(curveType byte, controls []Vec, pixelLength float64) *Curve {
	poly := fitLength(approximatePath(curveType, controls), pixelLength)
	c := &Curve{
		Type:     curveType,
		original: poly,
		points:   append([]Vec(nil), poly...),
		cum:      make([]float64, len(poly)),
	}
	for i := 1; i < len(poly); i++ {
		c.cum[i] = c.cum[i-1] + poly[i].Dist(poly[i-1])
	}
	if len(poly) > 0 {
		c.length = c.cum[len(poly)-1]
	}
	return c
}

func (c *Curve) Length() float64 { return c.length }

// Points returns the stacked polyline.
func (c *Curve) Points() []Vec { return c.points }

// PointAt returns the stacked position at fraction t of the path.
func (c *Curve) PointAt(t float64) Vec { return c.at(c.points, t) }

// OriginalPointAt ignores stacking.
func (c *Curve) OriginalPointAt(t float64) Vec { return c.at(c.original, t) }

// Translate moves the whole path up-left by offset on both axes, relative to
// its unstacked position.
func (c *Curve) Translate(offset float64) {
	for i, p := range c.original {
		c.points[i] = Vec{p.X - offset, p.Y - offset}
	}
}

func (c *Curve) at(pts []Vec, t float64) Vec {
	if len(pts) == 0 {
		return Vec{}
	}
	if len(pts) == 1 || !(t > 0) {
		return pts[0]
	}
	d := min(t, 1) * c.length
	i := sort.SearchFloat64s(c.cum, d)
	if i >= len(pts) {
		return pts[len(pts)-1]
	}
	if i == 0 {
		return pts[0]
	}
	seg := c.cum[i] - c.cum[i-1]
	if seg == 0 {
		return pts[i]
	}
	return lerp(pts[i-1], pts[i], (d-c.cum[i-1])/seg)
}

// approximatePath returns a polyline approximation for a slider path.
// Duplicates and zero-length steps are removed.
func approximatePath(curveType byte, cp []Vec) []Vec {
	var poly []Vec

	add := func(v Vec) {
		n := len(poly)
		if n == 0 || (poly[n-1].X != v.X || poly[n-1].Y != v.Y) {
			poly = append(poly, v)
		}
	}
	appendMany := func(pts []Vec) {
		for i := range pts {
			add(pts[i])
		}
	}

	switch curveType {
	case 'L':
		appendMany(cp)

	case 'C':
		appendMany(approximateCatmull(cp))

	case 'P':
		// Perfect circle only for exactly 3 non-collinear points; otherwise Bezier.
		if len(cp) == 3 && !collinear(cp[0], cp[1], cp[2]) {
			appendMany(approximateCircularArc(cp[0], cp[1], cp[2]))
		} else {
			appendMany(approximateBezier(cp))
		}

	default: // Bezier with red-anchor segmentation
		for si, seg := range bezierSegments(cp) {
			pts := approximateBezier(seg)
			// Avoid duplicating the shared point between consecutive Bezier segments.
			if si > 0 && len(pts) > 0 && len(poly) > 0 && almostEq(poly[len(poly)-1], pts[0]) {
				pts = pts[1:]
			}
			appendMany(pts)
		}
	}

	// compact collinear/zero-length steps
	return dedupeCollinear(poly)
}

// bezierSegments splits control points where a point repeats (red anchor).
func bezierSegments(pts []Vec) [][]Vec {
	if len(pts) == 0 {
		return nil
	}
	var segs [][]Vec
	cur := []Vec{pts[0]}
	for _, p := range pts[1:] {
		if p == cur[len(cur)-1] {
			if len(cur) >= 2 {
				segs = append(segs, cur)
			}
			cur = []Vec{p}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) >= 2 || len(segs) == 0 {
		segs = append(segs, cur)
	}
	return segs
}

// fitLength cuts poly at arc length length, or extends its last segment to
// reach it.
func fitLength(poly []Vec, length float64) []Vec {
	if len(poly) < 2 || !(length > 0) || math.IsInf(length, 0) {
		return poly
	}
	out := []Vec{poly[0]}
	walked := 0.0
	for i := 1; i < len(poly); i++ {
		seg := poly[i].Dist(poly[i-1])
		if seg > 0 && walked+seg >= length {
			return append(out, lerp(poly[i-1], poly[i], (length-walked)/seg))
		}
		walked += seg
		out = append(out, poly[i])
	}
	a, b := poly[len(poly)-2], poly[len(poly)-1]
	if seg := b.Dist(a); seg > 0 {
		out[len(out)-1] = lerp(a, b, (seg+length-walked)/seg)
	}
	return out
}

// --- Bezier (adaptive subdivision, identical strategy to lazer) ---

func approximateBezier(cp []Vec) []Vec {
	if len(cp) == 0 {
		return nil
	}
	var out []Vec
	stack := make([][]Vec, 0, 32)
	stack = append(stack, cp)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if bezierFlatEnough(cur) {
			// For a flat segment, emit its start point.
			out = append(out, cur[0])
			continue
		}
		// Subdivide (de Casteljau) into left & right halves and process right first
		// so the resulting points come out in correct order.
		l, r := bezierSubdivide(cur)
		stack = append(stack, r)
		stack = append(stack, l)
	}
	// Finally, emit the original end point.
	out = append(out, cp[len(cp)-1])
	return out
}

func bezierFlatEnough(cp []Vec) bool {
	// Check second differences against tolerance.
	for i := 1; i < len(cp)-1; i++ {
		dx := cp[i-1].X - 2*cp[i].X + cp[i+1].X
		dy := cp[i-1].Y - 2*cp[i].Y + cp[i+1].Y
		if dx*dx+dy*dy > bezTolSq {
			return false
		}
	}
	return true
}

func bezierSubdivide(cp []Vec) (left, right []Vec) {
	n := len(cp)
	buf := make([]Vec, n*(n+1)/2)
	copy(buf, cp)

	rowStart := 0
	nextRowStart := n
	for r := 1; r < n; r++ {
		for i := 0; i < n-r; i++ {
			buf[nextRowStart+i] = lerp(buf[rowStart+i], buf[rowStart+i+1], 0.5)
		}
		rowStart = nextRowStart
		nextRowStart += n - r
	}

	// left takes the first element of each row, right the last one reversed
	left = make([]Vec, n)
	right = make([]Vec, n)
	rowStart = 0
	for r := 0; r < n; r++ {
		left[r] = buf[rowStart]
		right[n-1-r] = buf[rowStart+n-1-r]
		rowStart += n - r
	}
	return left, right
}

// --- Catmull-Rom (uniform, with lazer's detail count) ---

func approximateCatmull(pts []Vec) []Vec {
	n := len(pts)
	if n <= 1 {
		return pts
	}
	out := make([]Vec, 0, (n-1)*catmullDet+1)
	out = append(out, pts[0])
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 1; s <= catmullDet; s++ {
			out = append(out, catmullPoint(p0, p1, p2, p3, float64(s)/catmullDet))
		}
	}
	return out
}

func catmullPoint(p0, p1, p2, p3 Vec, t float64) Vec {
	t2 := t * t
	t3 := t2 * t
	return Vec{
		X: 0.5 * ((2 * p1.X) + (-p0.X+p2.X)*t + (2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*t3),
		Y: 0.5 * ((2 * p1.Y) + (-p0.Y+p2.Y)*t + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3),
	}
}

// --- Perfect circle (3 points), with arc step from sagitta tolerance ---

func approximateCircularArc(p1, p2, p3 Vec) []Vec {
	cx, cy, ok := circumcenter(p1, p2, p3)
	if !ok {
		return []Vec{p1, p3}
	}
	c := Vec{cx, cy}
	r := p1.Dist(c)

	a1 := math.Atan2(p1.Y-cy, p1.X-cx)
	a3 := math.Atan2(p3.Y-cy, p3.X-cx)

	// Direction by cross((p2-p1),(p3-p2))
	dir := 1.0
	if cross(p2.Sub(p1), p3.Sub(p2)) < 0 {
		dir = -1.0
	}
	delta := angleDiff(a1, a3, dir)

	step := 2 * math.Acos(clamp(1.0-arcTol/r, -1, 1))
	if step <= 0 || math.IsNaN(step) || step > math.Pi {
		step = math.Pi
	}
	steps := max(int(math.Ceil(math.Abs(delta)/step)), 2)
	step = delta / float64(steps)

	out := make([]Vec, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		a := a1 + float64(i)*step
		out = append(out, Vec{cx + math.Cos(a)*r, cy + math.Sin(a)*r})
	}
	return append(out, p3)
}

// --- helpers ---

func dedupeCollinear(pts []Vec) []Vec {
	if len(pts) <= 2 {
		return pts
	}
	out := []Vec{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := out[len(out)-1], pts[i], pts[i+1]
		// remove exact duplicates or nearly-collinear middle points
		if almostEq(a, b) {
			continue
		}
		if math.Abs(cross(b.Sub(a), c.Sub(b))) < 1e-7 &&
			dot(norm(b.Sub(a)), norm(c.Sub(b))) > 0.999999 {
			continue
		}
		out = append(out, b)
	}
	if !almostEq(out[len(out)-1], pts[len(pts)-1]) {
		out = append(out, pts[len(pts)-1])
	}
	return out
}

func collinear(a, b, c Vec) bool {
	return math.Abs(cross(b.Sub(a), c.Sub(b))) < 1e-6
}

func circumcenter(a, b, c Vec) (x, y float64, ok bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-8 {
		return 0, 0, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	x = (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d
	y = (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d
	return x, y, true
}

func angleDiff(aStart, aEnd, dir float64) float64 {
	d := aEnd - aStart
	// Wrap to (-pi, pi]
	for d <= -math.Pi {
		d += 2 * math.Pi
	}
	for d > math.Pi {
		d -= 2 * math.Pi
	}
	if dir < 0 && d > 0 {
		d -= 2 * math.Pi
	} else if dir > 0 && d < 0 {
		d += 2 * math.Pi
	}
	return d
}

func lerp(a, b Vec, t float64) Vec { return a.Add(b.Sub(a).Scale(t)) }
func dot(a, b Vec) float64         { return a.X*b.X + a.Y*b.Y }
func cross(a, b Vec) float64       { return a.X*b.Y - a.Y*b.X }
func norm(v Vec) Vec {
	l := v.Len()
	if l == 0 {
		return Vec{0, 0}
	}
	return Vec{v.X / l, v.Y / l}
}
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
func almostEq(a, b Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}
