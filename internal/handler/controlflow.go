package handler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
)

var tokenSplitRE = regexp.MustCompile(`(GOTO|IF|WHILE|END|DO)`)

// ControlFlowHandler resolves GOTO/IF/WHILE/DO/END blocks, grounded on
// ncplot7py/domain/handlers/control_flow.py. Its label/DO/END maps and
// node-order index are built once by the canal runtime before the walk
// starts (§4.9, §4.10 step 2) and referenced here read-only except for the
// per-label loop counters, which this handler owns.
type ControlFlowHandler struct {
	LabelMap  map[int]*domain.CommandNode
	DoMap     map[string][]*domain.CommandNode
	EndMap    map[string][]*domain.CommandNode
	NodeIndex map[*domain.CommandNode]int
	// Nodes is the canal's source-order node list, used to fall through to
	// the node literally following an END when its re-checked WHILE
	// condition reads false — node.Next may already have been overwritten
	// to jump back into the loop body by an earlier, condition-true visit
	// to this same END, so source order (not node.Next) is the only way
	// back to "the block after END" (control_flow.py's `_nodes[end_idx+1]`).
	Nodes []*domain.CommandNode

	counters map[string]int
}

// NewControlFlowHandler returns a handler with an empty loop-counter table
// and no maps installed; call SetMaps to populate them, typically once per
// canal.
func NewControlFlowHandler() *ControlFlowHandler {
	return &ControlFlowHandler{counters: map[string]int{}}
}

// SetMaps installs the per-canal label/DO/END maps, node ordering index,
// and source-order node list.
func (h *ControlFlowHandler) SetMaps(labelMap map[int]*domain.CommandNode, doMap, endMap map[string][]*domain.CommandNode, nodeIndex map[*domain.CommandNode]int, nodes []*domain.CommandNode) {
	h.LabelMap = labelMap
	h.DoMap = doMap
	h.EndMap = endMap
	h.NodeIndex = nodeIndex
	h.Nodes = nodes
}

// Handle implements Handler.
func (h *ControlFlowHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	if node.LoopCommand == nil {
		return Result{}, nil
	}
	command := tokenSplitRE.ReplaceAllString(*node.LoopCommand, " $1")
	tokens := strings.Fields(command)

	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok, "IF"):
			cond := tok[2:]
			if EvalCondition(cond, state.Parameters) {
				for _, t2 := range tokens {
					if strings.HasPrefix(t2, "GOTO") {
						h.gotoLabel(node, strings.TrimPrefix(t2, "GOTO"))
						break
					}
				}
			}
			return Result{}, nil
		case strings.HasPrefix(tok, "GOTO"):
			h.gotoLabel(node, strings.TrimPrefix(tok, "GOTO"))
			return Result{}, nil
		case strings.HasPrefix(tok, "WHILE"):
			cond := tok[5:]
			if !EvalCondition(cond, state.Parameters) {
				for _, t2 := range tokens {
					if strings.HasPrefix(t2, "DO") {
						label := strings.TrimPrefix(t2, "DO")
						if endNode := h.findEndForDo(node, label); endNode != nil {
							node.Next = endNode.Next
						}
						break
					}
				}
			}
			return Result{}, nil
		case strings.HasPrefix(tok, "DO"):
			label := strings.TrimPrefix(tok, "DO")
			if lval, ok := node.Param("L"); ok {
				if cnt, err := strconv.Atoi(strings.TrimSpace(lval)); err == nil {
					h.counters[label] = cnt
				}
			}
			return Result{}, nil
		case strings.HasPrefix(tok, "END"):
			label := strings.TrimPrefix(tok, "END")
			h.handleEnd(node, label, state.Parameters)
			return Result{}, nil
		}
	}
	return Result{}, nil
}

func (h *ControlFlowHandler) gotoLabel(node *domain.CommandNode, pos string) {
	if n, err := strconv.Atoi(strings.TrimSpace(pos)); err == nil {
		if target, ok := h.LabelMap[n]; ok {
			node.Next = target
			return
		}
	}
	if list, ok := h.DoMap[pos]; ok && len(list) > 0 {
		node.Next = list[0]
	}
}

func (h *ControlFlowHandler) findDoForEnd(endNode *domain.CommandNode, label string) *domain.CommandNode {
	candidates := h.DoMap[label]
	if len(candidates) == 0 {
		return nil
	}
	endIdx, ok := h.NodeIndex[endNode]
	if !ok {
		return candidates[0]
	}
	var best *domain.CommandNode
	bestIdx := -1
	for _, n := range candidates {
		idx, ok := h.NodeIndex[n]
		if ok && idx < endIdx && idx > bestIdx {
			best = n
			bestIdx = idx
		}
	}
	if best == nil {
		return candidates[0]
	}
	return best
}

func (h *ControlFlowHandler) findEndForDo(doNode *domain.CommandNode, label string) *domain.CommandNode {
	list, ok := h.EndMap[label]
	if !ok || len(list) == 0 {
		return nil
	}
	doIdx, ok := h.NodeIndex[doNode]
	if !ok {
		return list[0]
	}
	for _, n := range list {
		if idx, ok := h.NodeIndex[n]; ok && idx > doIdx {
			return n
		}
	}
	return list[0]
}

func (h *ControlFlowHandler) handleEnd(node *domain.CommandNode, label string, vars map[string]float64) {
	doNode := h.findDoForEnd(node, label)
	if doNode == nil {
		return
	}
	if cnt, ok := h.counters[label]; ok {
		if cnt > 1 {
			h.counters[label] = cnt - 1
			node.Next = doNode.Next
		} else {
			// loop exhausted: fall through to the node literally following
			// END in source order. node.Next may already point back into
			// the loop body from an earlier cnt>1 visit to this same END,
			// so leaving it untouched here would re-enter the body forever
			// instead of completing after exactly L iterations (§4.9).
			delete(h.counters, label)
			h.fallThrough(node)
		}
		return
	}
	if doNode.LoopCommand != nil && strings.Contains(*doNode.LoopCommand, "WHILE") {
		command2 := tokenSplitRE.ReplaceAllString(*doNode.LoopCommand, " $1")
		for _, t3 := range strings.Fields(command2) {
			if strings.HasPrefix(t3, "WHILE") {
				// re-evaluate the DO's own WHILE condition against the
				// canal's current variables, matching control_flow.py's
				// re-check on every END hit.
				cond := t3[5:]
				if EvalCondition(cond, vars) {
					node.Next = doNode.Next
				} else {
					h.fallThrough(node)
				}
				break
			}
		}
	}
}

// fallThrough points node at the node literally following it in source
// order, or nil when node is the program's last node. Used on loop exit so
// a stale jump-back-into-the-body assignment from an earlier true-condition
// visit to this same END never survives past the loop's actual end.
func (h *ControlFlowHandler) fallThrough(node *domain.CommandNode) {
	idx, ok := h.NodeIndex[node]
	if !ok {
		return
	}
	if idx+1 < len(h.Nodes) {
		node.Next = h.Nodes[idx+1]
	} else {
		node.Next = nil
	}
}
