package handler

import (
	"math"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// patternFunc expands a pattern-array call's positional arguments into
// real drilling/slotting motion against the currently staged named cycle,
// grounded on the position formulas documented by ncplot7py's
// test_siemens_holes1.py, test_siemens_holes2.py, test_siemens_cycle801.py
// and test_siemens_longhole.py integration tests.
type patternFunc func(args []float64, state *domain.CanalState) Result

// cycleRegistry maps a pattern-array call's family name to its position
// generator. Plain cycle-definition calls (CYCLE81, POCKET1, SLOT1, …) are
// not registered here — those stage a tuple via defineActiveNamedCycle
// instead of producing motion on their own.
var cycleRegistry = map[string]patternFunc{
	"HOLES1":   holes1Cycle,
	"HOLES2":   holes2Cycle,
	"CYCLE801": cycle801Cycle,
	"LONGHOLE": longholeCycle,
}

// holes1Cycle implements HOLES1(SPCA, SPCO, STA1, FDIS, DBH, NUM): NUM
// holes along a straight line from reference point (SPCA, SPCO) at angle
// STA1 degrees, the first FDIS from the reference point and each
// following one DBH further out.
func holes1Cycle(args []float64, state *domain.CanalState) Result {
	if len(args) < 6 {
		return Result{}
	}
	spca, spco, sta1, fdis, dbh, num := args[0], args[1], args[2], args[3], args[4], int(args[5])
	rad := sta1 * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	positions := make([][2]float64, 0, num)
	for i := 0; i < num; i++ {
		dist := fdis + float64(i)*dbh
		positions = append(positions, [2]float64{spca + dist*cos, spco + dist*sin})
	}
	return drillAtEach(positions, state)
}

// holes2Cycle implements HOLES2(CPA, CPO, RAD, STA1, INDA, NUM): NUM holes
// evenly spaced INDA degrees apart around a circle of radius RAD centered
// at (CPA, CPO), the first at angle STA1.
func holes2Cycle(args []float64, state *domain.CanalState) Result {
	if len(args) < 6 {
		return Result{}
	}
	cpa, cpo, radius, sta1, inda, num := args[0], args[1], args[2], args[3], args[4], int(args[5])

	positions := make([][2]float64, 0, num)
	for i := 0; i < num; i++ {
		angle := (sta1 + float64(i)*inda) * math.Pi / 180
		positions = append(positions, [2]float64{cpa + radius*math.Cos(angle), cpo + radius*math.Sin(angle)})
	}
	return drillAtEach(positions, state)
}

// cycle801Cycle implements CYCLE801(SPCA, SPCO, STA1, DIS1, DIS2, NUM1,
// NUM2): a NUM1 x NUM2 grid of holes spaced DIS1 apart along the local X
// axis and DIS2 apart along the local Y axis, rooted at (SPCA, SPCO) and
// rotated STA1 degrees about that root.
func cycle801Cycle(args []float64, state *domain.CanalState) Result {
	if len(args) < 7 {
		return Result{}
	}
	spca, spco, sta1, dis1, dis2 := args[0], args[1], args[2], args[3], args[4]
	num1, num2 := int(args[5]), int(args[6])
	rad := sta1 * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	positions := make([][2]float64, 0, num1*num2)
	for i := 0; i < num1; i++ {
		for j := 0; j < num2; j++ {
			dx, dy := float64(i)*dis1, float64(j)*dis2
			positions = append(positions, [2]float64{
				spca + dx*cos - dy*sin,
				spco + dx*sin + dy*cos,
			})
		}
	}
	return drillAtEach(positions, state)
}

// drillAtEach runs drillSequence at every position in turn, concatenating
// the resulting points and durations into one Result.
func drillAtEach(positions [][2]float64, state *domain.CanalState) Result {
	if len(positions) == 0 {
		return Result{}
	}
	isInc := state.Modal("distance") == "G91"
	var points []domain.Point
	var duration float64
	for _, p := range positions {
		res := drillSequence(state, p[0], p[1], isInc)
		points = append(points, res.Points...)
		duration += res.Duration
	}
	return Result{Points: points, Duration: duration, Handled: true}
}

// longholeCycle implements LONGHOLE(RTP, RFP, SDIS, DP, DPR, NUM, LENG,
// CPA, CPO, RAD, STA1, INDA): NUM radially-arranged slots of length LENG
// around a circle of radius RAD centered at (CPA, CPO), the first at angle
// STA1 and each following one INDA degrees further around. Each slot is
// fed from its start point to its end point at absolute depth DP; unlike
// HOLES1/HOLES2/CYCLE801 it carries its own R/Z tuple (RTP/RFP/SDIS/DP)
// rather than replaying a previously staged named cycle.
func longholeCycle(args []float64, state *domain.CanalState) Result {
	if len(args) < 12 {
		return Result{}
	}
	rfp, sdis, dp := args[1], args[2], args[3]
	num, leng := int(args[5]), args[6]
	cpa, cpo, rad, sta1, inda := args[7], args[8], args[9], args[10], args[11]
	rLevel := rfp + sdis

	feed := state.FeedRate
	if feed <= 0 {
		feed = 100.0
	}

	currentZ := state.Axis("Z")
	var points []domain.Point
	var duration float64
	for i := 0; i < num; i++ {
		angle := (sta1 + float64(i)*inda) * math.Pi / 180
		cos, sin := math.Cos(angle), math.Sin(angle)
		cx, cy := cpa+rad*cos, cpo+rad*sin
		halfLen := leng / 2
		startX, startY := cx-halfLen*cos, cy-halfLen*sin
		endX, endY := cx+halfLen*cos, cy+halfLen*sin

		points = append(points, domain.NewPoint(startX, startY, currentZ)) // rapid to start XY
		points = append(points, domain.NewPoint(startX, startY, rLevel))   // rapid to R plane
		points = append(points, domain.NewPoint(startX, startY, dp))       // feed to depth

		depthDist := math.Abs(rLevel - dp)
		duration += (depthDist / feed) * 60.0

		points = append(points, domain.NewPoint(endX, endY, dp)) // feed along the slot
		duration += (math.Hypot(endX-startX, endY-startY) / feed) * 60.0

		points = append(points, domain.NewPoint(endX, endY, rLevel)) // retract to R plane
		state.SetAxis("X", endX)
		state.SetAxis("Y", endY)
		state.SetAxis("Z", rLevel)
		currentZ = rLevel
	}
	return Result{Points: points, Duration: duration, Handled: true}
}
