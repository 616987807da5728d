package handler

import (
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

// ToolHandler parses T-code tool changes, grounded on
// ncplot7py/domain/handlers/tool_handler.py (§4.6). Numeric tool numbers
// are range-checked against the machine config; Siemens T="name" values
// are preserved opaquely. A preloaded compensation tuple for the tool
// number is staged for the cutter-comp handler to pick up on G41/G42.
type ToolHandler struct{}

// Handle implements Handler.
func (ToolHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	raw, ok := node.Param("T")
	if !ok {
		return Result{}, nil
	}
	trimmed := strings.Trim(strings.TrimSpace(raw), `"`)

	tVal, err := strconv.Atoi(trimmed)
	if err != nil {
		if f, ferr := strconv.ParseFloat(trimmed, 64); ferr == nil {
			tVal = int(f)
		} else {
			state.Extra["current_tool_name"] = domain.StringValue(trimmed)
			return Result{}, nil
		}
	}

	state.Extra["current_tool_number"] = domain.IntValue(tVal)

	if cfg := state.MachineConfig; cfg != nil {
		fanucLathe := cfg.ControlFamily == "FANUC" && cfg.ToolRangeMax <= 99
		if !(fanucLathe && tVal > 99) {
			if tVal < cfg.ToolRangeMin || tVal > cfg.ToolRangeMax {
				return Result{}, ncerrors.NewCodeError(200, node.LineNr, 0, trimmed, "tool number out of range", "")
			}
		}
	}

	if toolMapVal, ok := state.Extra["tool_compensation_data"]; ok {
		if comp, ok := toolMapVal.ToolMap[tVal]; ok {
			state.Extra["pending_tool_radius"] = domain.FloatValue(comp.RValue)
			state.Extra["pending_tool_quadrant"] = domain.IntValue(comp.QValue)
		}
	}

	return Result{}, nil
}
