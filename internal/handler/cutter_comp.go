package handler

import (
	"strconv"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

// CutterCompHandler resolves G40/G41/G42 cutter-radius compensation,
// grounded on ncplot7py's cutter_comp_handler.py, generalized per §4.6 to
// enforce the activation-time radius/quadrant validation and direction
// conflict the distilled spec adds on top of the original's bare state
// stash.
type CutterCompHandler struct{}

// Handle implements Handler.
func (CutterCompHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	var mode string
	for _, g := range []string{"G40", "G41", "G42"} {
		if node.HasGCode(g) {
			if mode != "" && mode != g {
				return Result{}, ncerrors.NewCodeError(-104, node.LineNr, 0, g, "conflicting cutter compensation direction", "")
			}
			mode = g
		}
	}
	if mode == "" {
		return Result{}, nil
	}

	prevMode, hasPrev := state.Extra["cutter_comp"].AsString()
	if hasPrev && (mode == "G41" || mode == "G42") && prevMode != "" && prevMode != mode && prevMode != "G40" {
		return Result{}, ncerrors.NewCodeError(-104, node.LineNr, 0, mode, "conflicting cutter compensation direction", "")
	}
	state.Extra["cutter_comp"] = domain.StringValue(mode)

	if d, ok := node.Param("D"); ok {
		if dv, err := strconv.Atoi(d); err == nil {
			state.Extra["cutter_comp_d"] = domain.IntValue(dv)
		}
		delete(node.Parameters, "D")
	}

	if mode == "G40" {
		state.ToolRadius = 0
		state.ToolQuadrant = 0
		return Result{}, nil
	}

	radius, hasRadius := state.Extra["pending_tool_radius"]
	rv, rok := radius.AsFloat()
	if !hasRadius || !rok || rv <= 0 {
		return Result{}, ncerrors.NewCodeError(-107, node.LineNr, 0, "", "invalid tool radius", "")
	}
	quadrant, hasQuadrant := state.Extra["pending_tool_quadrant"]
	qv, qok := quadrant.AsFloat()
	if !hasQuadrant || !qok || qv < 1 || qv > 9 {
		return Result{}, ncerrors.NewCodeError(-102, node.LineNr, 0, "", "invalid tool quadrant", "")
	}

	state.ToolRadius = rv
	state.ToolQuadrant = int(qv)
	return Result{}, nil
}
