package handler

import (
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// CoordinateHandler resolves the Fanuc group-0 coordinate-set block
// (G50/G28/G4) and the Siemens work-coordinate block (G92/G53/G54-59),
// grounded on ncplot7py's gcode_group0_coordinate_set.py and
// coordinate_handler.py. Both vendor branches run unconditionally; only
// one ever matches for a given machine's G-code vocabulary.
type CoordinateHandler struct{}

var axisAliasMap = map[string]string{"U": "X", "V": "Y", "W": "Z", "H": "C"}

// Handle implements Handler.
func (CoordinateHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	if node.HasGCode("G50") {
		handleG50(node, state)
	}
	if node.HasGCode("G28") {
		node.GCodes.Add("G00")
		handleG28(node, state)
	}
	if node.HasGCode("G4") || node.HasGCode("G04") {
		delete(node.Parameters, "U")
		delete(node.Parameters, "X")
	}

	hasG92 := node.HasGCode("G92")
	var offsetIdx = -1
	for g := range node.GCodes {
		if n, ok := gNumber(g); ok && n >= 54 && n <= 59 {
			offsetIdx = n - 54
		}
	}
	if hasG92 {
		handleG92(node, state)
	}
	if offsetIdx >= 0 {
		state.Extra["work_offset_index"] = domain.IntValue(offsetIdx)
	}

	return Result{}, nil
}

func gNumber(g string) (int, bool) {
	g = strings.ToUpper(g)
	if !strings.HasPrefix(g, "G") {
		return 0, false
	}
	n, err := strconv.Atoi(g[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func handleG50(node *domain.CommandNode, state *domain.CanalState) {
	for key, raw := range node.Parameters {
		axis := strings.ToUpper(key)
		if axis != "A" && axis != "B" && axis != "C" && axis != "X" && axis != "Y" && axis != "Z" {
			continue
		}
		current := state.Axis(axis)
		state.Offsets[axis] = state.Offsets[axis] + current
		mult := state.AxisMultipliers[axis]
		if mult == 0 {
			mult = 1.0
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			val = 0.0
		}
		state.SetAxis(axis, val/mult)
		delete(node.Parameters, key)
	}
}

func handleG28(node *domain.CommandNode, state *domain.CanalState) {
	keys := make([]string, 0, len(node.Parameters))
	for key := range node.Parameters {
		keys = append(keys, key)
	}
	for _, key := range keys {
		raw := node.Parameters[key]
		mapped, ok := axisAliasMap[strings.ToUpper(key)]
		if !ok {
			mapped = strings.ToUpper(key)
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		off := state.Offsets[mapped]
		mult := state.AxisMultipliers[mapped]
		if mult == 0 {
			mult = 1.0
		}
		corrected := val - off*mult
		node.Parameters[mapped] = strconv.FormatFloat(corrected, 'f', -1, 64)
		if mapped != strings.ToUpper(key) {
			delete(node.Parameters, key)
		}
	}
}

func handleG92(node *domain.CommandNode, state *domain.CanalState) {
	for key, raw := range node.Parameters {
		axis := strings.ToUpper(key)
		switch axis {
		case "X", "Y", "Z", "A", "B", "C":
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				state.SetAxis(axis, v)
			}
			delete(node.Parameters, key)
		}
	}
}
