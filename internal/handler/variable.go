package handler

import (
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
	"github.com/ncplot7go/ncengine/internal/expr"
)

// VariableHandler evaluates macro/variable assignments and bracketed
// sub-expressions, grounded on ncplot7py/domain/handlers/variable.py.
// It never produces motion output; it always delegates after normalizing
// node.Parameters/GCodes in place so downstream handlers see plain numbers.
type VariableHandler struct{}

// Handle implements Handler.
func (VariableHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	vars := state.Parameters

	if node.VariableCommand != nil {
		assignments := strings.Fields(*node.VariableCommand)
		any := false
		for _, assign := range assignments {
			idx := strings.Index(assign, "=")
			if idx < 0 {
				continue
			}
			left := strings.TrimSpace(assign[:idx])
			right := strings.TrimSpace(assign[idx+1:])
			key, ok := state.MachineConfig.VariableIndex(left)
			if !ok {
				continue
			}
			any = true
			right = strings.TrimPrefix(right, "[")
			right = strings.TrimSuffix(right, "]")
			state.Parameters[key] = expr.EvalOrZero(right, vars)
		}
		if any {
			node.VariableCommand = nil
		}
	}

	for k, v := range node.Parameters {
		if strings.ContainsAny(v, "[]") {
			node.Parameters[k] = expr.ReduceBrackets(v, vars)
		}
	}

	if len(node.GCodes) > 0 {
		replaced := domain.NewStringSet()
		for g := range node.GCodes {
			if strings.ContainsAny(g, "[]") {
				reduced := expr.ReduceBrackets(g, vars)
				replaced.Add(reduced)
			} else {
				replaced.Add(g)
			}
		}
		node.GCodes = replaced
	}

	return Result{}, nil
}

// EvalCondition evaluates a comparison condition of the form
// "<left><OP><right>" where OP ∈ {GT,LT,GE,LE,EQ}, as used by the
// control-flow handler's IF/WHILE blocks (§4.9).
func EvalCondition(cond string, vars map[string]float64) bool {
	cond = strings.TrimSpace(cond)
	cond = strings.TrimPrefix(cond, "[")
	cond = strings.TrimSuffix(cond, "]")
	for _, op := range []string{"GE", "LE", "GT", "LT", "EQ"} {
		if idx := strings.Index(cond, op); idx >= 0 {
			left := cond[:idx]
			right := cond[idx+len(op):]
			lv, err1 := expr.Eval(left, vars)
			rv, err2 := expr.Eval(right, vars)
			if err1 != nil || err2 != nil {
				return false
			}
			switch op {
			case "GT":
				return lv > rv
			case "LT":
				return lv < rv
			case "GE":
				return lv >= rv
			case "LE":
				return lv <= rv
			case "EQ":
				return lv == rv
			}
		}
	}
	return false
}

// parseIntDefault parses s as an int, returning def on failure.
func parseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}
