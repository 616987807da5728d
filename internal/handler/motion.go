package handler

import (
	"math"
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

// MotionHandler interpolates G00/G01 (linear) and G02/G03 (circular) moves,
// grounded on ncplot7py/domain/handlers/motion.py — the core algorithm
// that gives the engine its tool path. MaxSegment bounds linear-segment
// length; it may be overridden per canal via state.Extra["max_segment"].
type MotionHandler struct {
	MaxSegment float64
}

// NewMotionHandler returns a handler with the given default max segment
// length (mm), used when state carries no "max_segment" override.
func NewMotionHandler(maxSegment float64) *MotionHandler {
	if maxSegment <= 0 {
		maxSegment = 0.5
	}
	return &MotionHandler{MaxSegment: maxSegment}
}

var uvwToAxis = map[string]string{"U": "X", "V": "Y", "W": "Z"}

// Handle implements Handler.
func (h *MotionHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	mode := ""
	for g := range node.GCodes {
		switch strings.ToUpper(g) {
		case "G00", "G0":
			mode = "G00"
		case "G01", "G1":
			mode = "G01"
		case "G02", "G2":
			mode = "G02"
		case "G03", "G3":
			mode = "G03"
		}
	}
	if mode == "" {
		return Result{}, nil
	}

	start := cloneAxes(state.Axes)
	absolute := state.Modal("distance") != "G91"

	targetSpec := map[string]float64{}
	for k, v := range node.Parameters {
		key := strings.ToUpper(k)
		switch key {
		case "X", "Y", "Z", "A", "B", "C":
			targetSpec[key] = parseFloatOrZero(v)
		case "U", "V", "W":
			targetSpec[uvwToAxis[key]] = parseFloatOrZero(v)
		}
	}
	for ax, v := range targetSpec {
		targetSpec[ax] = state.NormalizeAxisValue(ax, v)
	}

	resolved := state.ResolveTarget(targetSpec, absolute)

	params := map[string]float64{}
	for k, v := range node.Parameters {
		params[strings.ToUpper(k)] = parseFloatOrZero(v)
	}
	if ival, ok := params["I"]; ok {
		params["I"] = state.NormalizeAxisValue("X", ival)
	}
	if jval, ok := params["J"]; ok {
		params["J"] = state.NormalizeAxisValue("Y", jval)
	}

	var points []domain.Point
	var duration float64
	var err error
	switch mode {
	case "G01", "G00":
		points, duration = h.linearInterpolate(start, resolved, state)
	case "G02", "G03":
		if plane := state.Modal("plane"); plane != "" && plane != "G17" {
			return Result{}, ncerrors.NewCodeError(-105, node.LineNr, 0, plane, "circular interpolation outside XY plane", "")
		}
		points, duration, err = h.circularInterpolate(start, resolved, params, state, mode == "G02", node.LineNr)
		if err != nil {
			return Result{}, err
		}
	}

	state.UpdateAxes(resolved)
	return Result{Points: points, Duration: duration, Handled: true}, nil
}

func cloneAxes(axes map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(axes))
	for k, v := range axes {
		out[k] = v
	}
	return out
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return v
}

func axisOr(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func distance3(a, b map[string]float64) float64 {
	dx := axisOr(b, "X", 0) - axisOr(a, "X", 0)
	dy := axisOr(b, "Y", 0) - axisOr(a, "Y", 0)
	dz := axisOr(b, "Z", 0) - axisOr(a, "Z", 0)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// effectiveFeedMmPerMin converts state's raw feed_rate into mm/min,
// accounting for feed-per-revolution mode (Fanuc G99, Siemens G95).
func effectiveFeedMmPerMin(state *domain.CanalState) float64 {
	feed := state.FeedRate
	if feed == 0 {
		feed = 1.0
	}
	if v, ok := state.Extra["feed_per_rev"]; ok {
		if perRev, _ := v.AsBool(); perRev {
			rpm := state.SpindleSpeed
			if rpm == 0 {
				rpm = 1.0
			}
			return feed * rpm
		}
	}
	return feed
}

func (h *MotionHandler) maxSegment(state *domain.CanalState) float64 {
	if v := state.GetExtraFloat("max_segment", 0); v > 0 {
		return v
	}
	return h.MaxSegment
}

func (h *MotionHandler) linearInterpolate(start, end map[string]float64, state *domain.CanalState) ([]domain.Point, float64) {
	dist := distance3(start, end)
	if dist <= 0.0 {
		p := domain.Point{
			X: axisOr(end, "X", 0), Y: axisOr(end, "Y", 0), Z: axisOr(end, "Z", 0),
			A: axisOr(end, "A", 0), B: axisOr(end, "B", 0), C: axisOr(end, "C", 0),
		}
		return []domain.Point{p}, 0.0
	}

	effMaxSeg := h.maxSegment(state)
	n := int(math.Ceil(dist / effMaxSeg))
	if n < 1 {
		n = 1
	}

	feedMmS := effectiveFeedMmPerMin(state) / 60.0
	duration := 0.0
	if feedMmS > 0 {
		duration = dist / feedMmS
	}

	points := make([]domain.Point, 0, n+1)
	points = append(points, domain.Point{
		X: axisOr(start, "X", 0), Y: axisOr(start, "Y", 0), Z: axisOr(start, "Z", 0),
		A: axisOr(start, "A", 0), B: axisOr(start, "B", 0), C: axisOr(start, "C", 0),
	})
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		x := axisOr(start, "X", 0) + (axisOr(end, "X", axisOr(start, "X", 0))-axisOr(start, "X", 0))*t
		y := axisOr(start, "Y", 0) + (axisOr(end, "Y", axisOr(start, "Y", 0))-axisOr(start, "Y", 0))*t
		z := axisOr(start, "Z", 0) + (axisOr(end, "Z", axisOr(start, "Z", 0))-axisOr(start, "Z", 0))*t
		points = append(points, domain.Point{
			X: x, Y: y, Z: z,
			A: axisOr(end, "A", axisOr(start, "A", 0)),
			B: axisOr(end, "B", axisOr(start, "B", 0)),
			C: axisOr(end, "C", axisOr(start, "C", 0)),
		})
	}
	return points, duration
}

func normalizeSweep(a0, a1 float64, cw bool) float64 {
	raw := a1 - a0
	twoPi := 2 * math.Pi
	da := math.Mod(raw+math.Pi, twoPi) - math.Pi
	if da < -math.Pi {
		da += twoPi
	}
	candidates := []float64{da, da - twoPi, da + twoPi}

	var matching []float64
	for _, d := range candidates {
		if cw && d < 0 {
			matching = append(matching, d)
		} else if !cw && d > 0 {
			matching = append(matching, d)
		}
	}
	pick := func(list []float64) float64 {
		best := list[0]
		for _, d := range list[1:] {
			if math.Abs(d) < math.Abs(best) {
				best = d
			}
		}
		return best
	}
	if len(matching) > 0 {
		return pick(matching)
	}
	return pick(candidates)
}

func (h *MotionHandler) circularInterpolate(start, end map[string]float64, params map[string]float64, state *domain.CanalState, cw bool, lineNr int) ([]domain.Point, float64, error) {
	sx, sy := axisOr(start, "X", 0), axisOr(start, "Y", 0)
	ex, ey := axisOr(end, "X", sx), axisOr(end, "Y", sy)

	var cx, cy float64
	_, hasI := params["I"]
	_, hasJ := params["J"]
	r, hasR := params["R"]

	switch {
	case hasI || hasJ:
		cx = sx + params["I"]
		cy = sy + params["J"]
	case hasR && r != 0.0:
		mx, my := (sx+ex)/2.0, (sy+ey)/2.0
		dx, dy := ex-sx, ey-sy
		d2 := dx*dx + dy*dy
		if d2 == 0.0 {
			return nil, 0, ncerrors.NewCodeError(-108, lineNr, 0, "", "zero chord length", "")
		}
		inner := r*r - d2/4.0
		if inner < 0 {
			inner = 0
		}
		hh := math.Sqrt(inner) / math.Sqrt(d2)
		cx1, cy1 := mx-hh*dy, my+hh*dx
		cx2, cy2 := mx+hh*dy, my-hh*dx

		sweepFor := func(ccx, ccy float64) float64 {
			a0c := math.Atan2(sy-ccy, sx-ccx)
			a1c := math.Atan2(ey-ccy, ex-ccx)
			dac := a1c - a0c
			if dac > math.Pi {
				dac -= 2 * math.Pi
			}
			if dac < -math.Pi {
				dac += 2 * math.Pi
			}
			return dac
		}
		da1 := sweepFor(cx1, cy1)
		da2 := sweepFor(cx2, cy2)
		matchesCW := func(d float64, cwFlag bool) bool {
			if cwFlag {
				return d < 0
			}
			return d > 0
		}
		switch {
		case matchesCW(da1, cw) && !matchesCW(da2, cw):
			cx, cy = cx1, cy1
		case matchesCW(da2, cw) && !matchesCW(da1, cw):
			cx, cy = cx2, cy2
		case math.Abs(da1) <= math.Abs(da2):
			cx, cy = cx1, cy1
		default:
			cx, cy = cx2, cy2
		}
	default:
		return nil, 0, ncerrors.NewCodeError(-108, lineNr, 0, "", "arc requires I/J or R", "")
	}

	a0 := math.Atan2(sy-cy, sx-cx)
	a1 := math.Atan2(ey-cy, ex-cx)
	da := normalizeSweep(a0, a1, cw)
	radius := math.Hypot(sx-cx, sy-cy)
	arcLength := math.Abs(da) * radius

	effMaxSeg := h.maxSegment(state)
	n := int(math.Ceil(arcLength / effMaxSeg))
	if n < 2 {
		n = 2
	}
	desiredDeg := state.GetExtraFloat("angle_per_segment_deg", 10.0)
	if desiredDeg <= 0 {
		desiredDeg = 10.0
	}
	minNByAngle := int(math.Ceil(math.Abs(da) / (desiredDeg * math.Pi / 180.0)))
	if minNByAngle < 2 {
		minNByAngle = 2
	}
	if minNByAngle > n {
		n = minNByAngle
	}

	feedMmS := effectiveFeedMmPerMin(state) / 60.0
	duration := 0.0
	if feedMmS > 0 {
		duration = arcLength / feedMmS
	}

	points := make([]domain.Point, 0, n+1)
	startZ := axisOr(start, "Z", 0)
	endZ := axisOr(end, "Z", startZ)
	points = append(points, domain.Point{
		X: cx + math.Cos(a0)*radius, Y: cy + math.Sin(a0)*radius, Z: startZ,
		A: axisOr(start, "A", 0), B: axisOr(start, "B", 0), C: axisOr(start, "C", 0),
	})
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		theta := a0 + da*t
		points = append(points, domain.Point{
			X: cx + math.Cos(theta)*radius,
			Y: cy + math.Sin(theta)*radius,
			Z: startZ + (endZ-startZ)*t,
			A: axisOr(end, "A", axisOr(start, "A", 0)),
			B: axisOr(end, "B", axisOr(start, "B", 0)),
			C: axisOr(end, "C", axisOr(start, "C", 0)),
		})
	}
	return points, duration, nil
}
