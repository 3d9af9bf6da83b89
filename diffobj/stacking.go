package diffobj

import (
	"context"

	"osudiff/dotosu"
)

// Stack assigns stack heights to objs, which must already be sorted.
// Charts up to format v5 use the old forward algorithm.
func Stack(ctx context.Context, objs []Object, version int, stackLeniency, ar float32) error {
	window := stackWindow(ar, stackLeniency)
	if version > 5 {
		return stackCurrent(ctx, objs, window)
	}
	return stackLegacy(ctx, objs, window)
}

// stackCurrent walks backwards, linking each object to earlier ones that sit
// on top of it. Spinners neither stack nor interrupt a stack.
func stackCurrent(ctx context.Context, objs []Object, window float64) error {
	for i := len(objs) - 1; i > 0; i-- {
		if ctx.Err() != nil {
			return dotosu.ErrCancelled
		}
		objI := &objs[i]
		if objI.Stack != 0 || objI.Kind == Spinner {
			continue
		}

		switch objI.Kind {
		case Circle:
			for n := i - 1; n >= 0; n-- {
				objN := &objs[n]
				if objN.Kind == Spinner {
					continue
				}
				if objI.Time-window > objN.EndTime {
					break
				}

				// A circle under a slider's tail pushes the whole run below
				// it so the tail stays visible.
				if objN.Duration() != 0 && objN.endPos().Dist(objI.startPos()) < stackLenience {
					offset := objI.Stack - objN.Stack + 1
					tail := objN.endPos()
					for j := n + 1; j <= i; j++ {
						if tail.Dist(objs[j].startPos()) < stackLenience {
							objs[j].Stack -= offset
						}
					}
					break
				}

				if objN.startPos().Dist(objI.startPos()) < stackLenience {
					objN.Stack = objI.Stack + 1
					objI = objN
				}
			}

		case Slider:
			for n := i - 1; n >= 0; n-- {
				objN := &objs[n]
				if objN.Kind == Spinner {
					continue
				}
				if objI.Time-window > objN.Time {
					break
				}

				pos := objN.startPos()
				if objN.Duration() != 0 {
					pos = objN.endPos()
				}
				if pos.Dist(objI.startPos()) < stackLenience {
					objN.Stack = objI.Stack + 1
					objI = objN
				}
			}
		}
	}
	return nil
}

// stackLegacy walks forwards. Objects landing on a slider's tail are pushed
// down-right instead of stacking up-left.
func stackLegacy(ctx context.Context, objs []Object, window float64) error {
	for i := range objs {
		if ctx.Err() != nil {
			return dotosu.ErrCancelled
		}
		cur := &objs[i]
		if cur.Stack != 0 && cur.Kind != Slider {
			continue
		}

		startTime := cur.EndTime
		sliderStack := 0
		tail := cur.startPos()
		if cur.Kind == Slider {
			tail = cur.endPos()
		}

		for j := i + 1; j < len(objs); j++ {
			objJ := &objs[j]
			if objJ.Time-window > startTime {
				break
			}

			switch pos := objJ.startPos(); {
			case pos.Dist(cur.startPos()) < stackLenience:
				cur.Stack++
				startTime = objJ.EndTime
			case pos.Dist(tail) < stackLenience:
				sliderStack++
				objJ.Stack -= sliderStack
				startTime = objJ.EndTime
			}
		}
	}
	return nil
}

// ApplyStackOffsets moves every stacked slider, head and path, by its stack
// height. Circles keep their file position.
func ApplyStackOffsets(ctx context.Context, objs []Object, cs float32) error {
	offset := StackOffset(cs)
	for i := range objs {
		if ctx.Err() != nil {
			return dotosu.ErrCancelled
		}
		o := &objs[i]
		if o.Stack == 0 || o.Kind != Slider || o.Curve == nil {
			continue
		}
		d := float64(o.Stack) * offset
		o.Pos = Vec{o.OriginalPos.X - d, o.OriginalPos.Y - d}
		o.Curve.Translate(d)
	}
	return nil
}
