package handler

import (
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// CycleHandler expands G73/G81-G89 drilling cycles into rapid/feed/retract
// motion, grounded on ncplot7py's cycles_handler.py: rapid to X/Y, rapid to
// the R-plane, feed to Z-depth, retract per the G98/G99 return mode. It
// also supports Siemens-style named-cycle invocation via node.VariableCommand:
// "MCALL CYCLE81(...)" stages the cycle's {R, Z, F, dwell} tuple so a later
// modal block at a new X/Y replays it, and a HOLES1/HOLES2/CYCLE801/LONGHOLE
// pattern-array call (§C.5) iterates its computed positions and drills each
// one against that staged tuple via cycleRegistry.
type CycleHandler struct{}

// Handle implements Handler.
func (CycleHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	for _, g := range []string{"G98", "G99"} {
		if node.HasGCode(g) {
			state.Extra["cycle_return_mode"] = domain.IntValue(mustGNum(g))
		}
	}

	var cycleCode int
	isDefinition := false
	for g := range node.GCodes {
		n, ok := gNumber(g)
		if !ok {
			continue
		}
		if n >= 73 && n <= 89 && n != 80 {
			cycleCode = n
			isDefinition = true
		} else if n == 80 {
			delete(state.Extra, "active_cycle")
			delete(state.Extra, "cycle_initial_z")
		}
	}
	if isDefinition {
		state.Extra["active_cycle"] = domain.IntValue(cycleCode)
		state.Extra["cycle_initial_z"] = domain.FloatValue(state.Axis("Z"))
	}

	if r, ok := node.Param("R"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(r), 64); err == nil {
			state.Extra["cycle_r"] = domain.FloatValue(v)
		}
	}
	if z, ok := node.Param("Z"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(z), 64); err == nil {
			state.Extra["cycle_z"] = domain.FloatValue(v)
		}
	}
	if f, ok := node.Param("F"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			state.FeedRate = v
		}
	}

	if node.VariableCommand != nil && containsNamedCycle(*node.VariableCommand) {
		if res, handled := handleNamedCycleCall(node, state); handled {
			return res, nil
		}
	}

	if _, hasActive := state.Extra["active_cycle"]; !hasActive {
		return Result{}, nil
	}
	_, hasX := node.Param("X")
	_, hasY := node.Param("Y")
	hasMotion := hasX || hasY
	if !isDefinition && !hasMotion {
		return Result{}, nil
	}

	return executeCycle(node, state), nil
}

func mustGNum(g string) int {
	n, _ := gNumber(g)
	return n
}

// containsNamedCycle reports whether cmd is a vendor named-cycle construct:
// either a bare/combined MCALL modal-call block, or a CYCLE/POCKET/SLOT/
// LONGHOLE/HOLES invocation (with or without a preceding "MCALL ").
func containsNamedCycle(cmd string) bool {
	upper := strings.ToUpper(cmd)
	if strings.HasPrefix(upper, "MCALL") {
		return true
	}
	for _, prefix := range []string{"CYCLE", "POCKET", "SLOT", "LONGHOLE", "HOLES"} {
		if strings.Contains(upper, prefix) {
			return true
		}
	}
	return false
}

// handleNamedCycleCall dispatches node's VariableCommand: a bare "MCALL"
// cancels the active modal cycle; "MCALL CYCLE81(...)" (or a bare
// "CYCLEnn(...)"/"POCKETn(...)"/"SLOTn(...)" call) stages the cycle's
// {R,Z,F,dwell} tuple for later replay; and a HOLES1/HOLES2/CYCLE801/
// LONGHOLE pattern call is expanded immediately into real motion via
// cycleRegistry, returning handled=true so the caller skips the normal
// single-position executeCycle path.
func handleNamedCycleCall(node *domain.CommandNode, state *domain.CanalState) (Result, bool) {
	raw := strings.TrimSpace(*node.VariableCommand)

	if rest, ok := stripMCALLPrefix(raw); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			delete(state.Extra, "active_named_cycle")
			delete(state.Extra, "active_cycle")
			delete(state.Extra, "cycle_initial_z")
			return Result{}, false
		}
		defineActiveNamedCycle(node, rest, state)
		return Result{}, false
	}

	name, args := splitCallArgs(raw)
	if fn, ok := cycleRegistry[name]; ok {
		return fn(args, state), true
	}
	defineActiveNamedCycle(node, raw, state)
	return Result{}, false
}

// stripMCALLPrefix reports whether raw begins with the MCALL keyword,
// returning the remainder of the block (the cycle call text, or empty for
// a bare cancelling MCALL).
func stripMCALLPrefix(raw string) (string, bool) {
	const prefix = "MCALL"
	if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}
	return raw[len(prefix):], true
}

// defineActiveNamedCycle parses callText's positional argument list (e.g.
// "CYCLE81(10, 0, 2, -10, 0)" as RTP, RFP, SDIS, DP, DPR) and stages the
// resulting {R,Z,F,dwell} tuple so a later modal block can replay it, and
// so a HOLES1/HOLES2/CYCLE801 pattern call immediately after it drills at
// the same R/Z, grounded on cycles_handler.py's cycle_r/cycle_z Extra
// slots.
func defineActiveNamedCycle(node *domain.CommandNode, callText string, state *domain.CanalState) {
	name, args := splitCallArgs(callText)
	cyc := domain.ActiveNamedCycle{Name: name, Params: map[string]float64{}}
	switch {
	case len(args) >= 4:
		// RTP, RFP, SDIS, DP[, DPR]: rapid plane is the reference plane
		// plus its safety distance; depth is the programmed absolute DP.
		cyc.R = args[1] + args[2]
		cyc.Z = args[3]
	case len(args) >= 2:
		cyc.R = args[0]
		cyc.Z = args[1]
	}
	cyc.F = state.FeedRate
	if dw, ok := node.Param("P"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(dw), 64); err == nil {
			cyc.Dwell = v
		}
	}
	state.Extra["active_named_cycle"] = domain.CycleValue(cyc)
	state.Extra["active_cycle"] = domain.IntValue(81)
	state.Extra["cycle_r"] = domain.FloatValue(cyc.R)
	state.Extra["cycle_z"] = domain.FloatValue(cyc.Z)
}

// splitCallArgs splits a "NAME(a, b, , c)" vendor call into its upper-cased
// family name and positional numeric arguments. A blank argument (an
// omitted optional parameter, as LONGHOLE's DPR commonly is) parses as
// zero rather than failing the whole call.
func splitCallArgs(call string) (string, []float64) {
	open := strings.IndexByte(call, '(')
	if open < 0 {
		return strings.ToUpper(strings.TrimSpace(call)), nil
	}
	name := strings.ToUpper(strings.TrimSpace(call[:open]))
	closeIdx := strings.LastIndexByte(call, ')')
	if closeIdx < open {
		closeIdx = len(call)
	}
	parts := strings.Split(call[open+1:closeIdx], ",")
	args := make([]float64, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if v, err := strconv.ParseFloat(p, 64); err == nil {
			args[i] = v
		}
	}
	return name, args
}

func executeCycle(node *domain.CommandNode, state *domain.CanalState) Result {
	isInc := state.Modal("distance") == "G91"
	startX, startY := state.Axis("X"), state.Axis("Y")

	destX, destY := startX, startY
	if xv, ok := node.Param("X"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(xv), 64); err == nil {
			if isInc {
				destX = startX + v
			} else {
				destX = v
			}
		}
	}
	if yv, ok := node.Param("Y"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(yv), 64); err == nil {
			if isInc {
				destY = startY + v
			} else {
				destY = v
			}
		}
	}

	return drillSequence(state, destX, destY, isInc)
}

// drillSequence expands the active cycle's {R, Z} tuple into a rapid-to-XY
// / rapid-to-R-plane / feed-to-Z-bottom / retract point sequence at
// (destX, destY), grounded on cycles_handler.py's four-step cycle body.
// It is reused both for a direct G81-style block (via executeCycle) and
// for each position a HOLES1/HOLES2/CYCLE801 pattern call resolves to
// (via cycleRegistry).
func drillSequence(state *domain.CanalState, destX, destY float64, isInc bool) Result {
	startZ := state.Axis("Z")
	points := make([]domain.Point, 0, 4)
	points = append(points, domain.NewPoint(destX, destY, startZ))
	state.SetAxis("X", destX)
	state.SetAxis("Y", destY)

	rLevel := state.GetExtraFloat("cycle_r", startZ)
	rAbs := rLevel
	if isInc {
		rAbs = startZ + rLevel
	}
	points = append(points, domain.NewPoint(destX, destY, rAbs))
	state.SetAxis("Z", rAbs)

	zParam := state.GetExtraFloat("cycle_z", rAbs)
	zBottom := zParam
	if isInc {
		zBottom = rAbs + zParam
	}
	dist := zBottom - rAbs
	if dist < 0 {
		dist = -dist
	}
	feed := state.FeedRate
	if feed <= 0 {
		feed = 100.0
	}
	duration := (dist / feed) * 60.0
	points = append(points, domain.NewPoint(destX, destY, zBottom))
	state.SetAxis("Z", zBottom)

	returnMode := int(state.GetExtraFloat("cycle_return_mode", 98))
	retractZ := startZ
	if returnMode == 99 {
		retractZ = rAbs
	}
	points = append(points, domain.NewPoint(destX, destY, retractZ))
	state.SetAxis("Z", retractZ)

	return Result{Points: points, Duration: duration, Handled: true}
}
