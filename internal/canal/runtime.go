// Package canal runs one canal's node list against its handler chain,
// adapted from the teacher's internal/engine executor: a plain struct
// wrapping the node/state/chain triple with a single Run method, rather
// than a recursive executor graph (§4.10).
package canal

import (
	"strconv"
	"strings"

	"github.com/ncplot7go/ncengine/internal/domain"
	"github.com/ncplot7go/ncengine/internal/handler"
)

// Result is one canal's finished execution: the tool path and the parallel
// node list that produced each entry (§3: "len(tool_path) == len(tool_nodes)").
type Result struct {
	ToolPath  []domain.ToolPathEntry
	ToolNodes []*domain.CommandNode
	Errors    []error
}

// Runtime links and walks one canal's node list.
type Runtime struct {
	nodes       []*domain.CommandNode
	state       *domain.CanalState
	chain       *handler.Chain
	controlFlow *handler.ControlFlowHandler
	canalName   string
	maxSteps    int
}

// NewRuntime links nodes into a doubly-linked list, builds the
// label/DO/END maps, hands them to controlFlow, and returns a Runtime
// ready to walk. nodes must be in source order.
func NewRuntime(nodes []*domain.CommandNode, state *domain.CanalState, chain *handler.Chain, controlFlow *handler.ControlFlowHandler, canalName string) *Runtime {
	for i, n := range nodes {
		if i > 0 {
			n.Prev = nodes[i-1]
		}
		if i < len(nodes)-1 {
			n.Next = nodes[i+1]
		}
	}

	labelMap := map[int]*domain.CommandNode{}
	doMap := map[string][]*domain.CommandNode{}
	endMap := map[string][]*domain.CommandNode{}
	nodeIndex := map[*domain.CommandNode]int{}

	for i, n := range nodes {
		nodeIndex[n] = i
		if nStr, ok := n.Param("N"); ok {
			if nNum, err := strconv.Atoi(strings.TrimSpace(nStr)); err == nil {
				labelMap[nNum] = n
			}
		}
		if n.LoopCommand == nil {
			continue
		}
		cmd := *n.LoopCommand
		if strings.Contains(cmd, "DO") {
			if label := extractLabel(cmd, "DO"); label != "" {
				doMap[label] = append(doMap[label], n)
			}
		}
		if strings.Contains(cmd, "END") {
			if label := extractLabel(cmd, "END"); label != "" {
				endMap[label] = append(endMap[label], n)
			}
		}
	}
	if controlFlow != nil {
		controlFlow.SetMaps(labelMap, doMap, endMap, nodeIndex, nodes)
	}

	steps := len(nodes) * 100
	if steps < 10000 {
		steps = 10000
	}

	return &Runtime{
		nodes:       nodes,
		state:       state,
		chain:       chain,
		controlFlow: controlFlow,
		canalName:   canalName,
		maxSteps:    steps,
	}
}

// extractLabel pulls the label token immediately following keyword in cmd
// (e.g. "DO100" -> "100"), stopping at the next keyword boundary.
func extractLabel(cmd, keyword string) string {
	idx := strings.Index(cmd, keyword)
	if idx < 0 {
		return ""
	}
	rest := cmd[idx+len(keyword):]
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] >= 'A' && rest[end] <= 'Z') {
		if rest[end] >= 'A' && rest[end] <= 'Z' {
			break
		}
		end++
	}
	return rest[:end]
}

// Run walks the node list from the first node, invoking the chain on each
// and following node.Next, which a control-flow handler may have
// redirected mid-walk. It stops on a self-loop, on the first handler error
// (recorded in Result.Errors), or at the step cap.
func (r *Runtime) Run() Result {
	var res Result
	if len(r.nodes) == 0 {
		return res
	}

	current := r.nodes[0]
	steps := 0
	for current != nil && steps < r.maxSteps {
		steps++
		out, err := r.chain.Run(current, r.state, r.canalName)
		if err != nil {
			res.Errors = append(res.Errors, err)
			break
		}
		if out.Handled {
			res.ToolPath = append(res.ToolPath, domain.ToolPathEntry{Points: out.Points, Duration: out.Duration})
			res.ToolNodes = append(res.ToolNodes, current)
		}

		next := current.Next
		if next == current {
			break
		}
		current = next
	}
	return res
}
