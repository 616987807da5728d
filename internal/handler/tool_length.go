package handler

import (
	"strconv"

	"github.com/ncplot7go/ncengine/internal/domain"
)

// ToolLengthHandler resolves G43/G44/G49 tool-length compensation,
// grounded on ncplot7py's tool_length_handler.py (§4.6): adjusts
// state.Offsets["Z"] by the H value, sign per direction, and consumes H.
type ToolLengthHandler struct{}

// Handle implements Handler.
func (ToolLengthHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	mode := 0
	for _, g := range []string{"G43", "G44", "G49"} {
		if node.HasGCode(g) {
			switch g {
			case "G43":
				mode = 43
			case "G44":
				mode = 44
			case "G49":
				mode = 49
			}
		}
	}
	if mode == 0 {
		return Result{}, nil
	}

	if mode == 49 {
		state.Offsets["Z"] = 0.0
		return Result{}, nil
	}

	hVal := 0.0
	if h, ok := node.Param("H"); ok {
		if v, err := strconv.ParseFloat(h, 64); err == nil {
			hVal = v
		}
		delete(node.Parameters, "H")
	}
	if mode == 43 {
		state.Offsets["Z"] = hVal
	} else {
		state.Offsets["Z"] = -hVal
	}
	return Result{}, nil
}
