package handler

import (
	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

// ModalHandler resolves the single-code-per-group modal blocks: plane
// selection, speed/feed mode, polar mode and units, grounded on
// ncplot7py/domain/handlers (the plane/mode handlers) and machines.py's
// per-family default groups. It never produces motion output itself.
type ModalHandler struct{}

var planeCodes = map[string]string{"G17": "plane", "G18": "plane", "G19": "plane"}
var speedModeCodes = map[string]string{"G96": "speed_mode", "G97": "speed_mode"}
var feedModeFanucCodes = map[string]string{"G98": "feed_mode", "G99": "feed_mode"}
var feedModeSiemensCodes = map[string]string{"G94": "feed_mode", "G95": "feed_mode"}
var polarCodes = map[string]string{"G112": "polar", "G113": "polar"}
var unitsCodes = map[string]string{"G20": "units", "G21": "units"}

// Handle implements Handler.
func (ModalHandler) Handle(node *domain.CommandNode, state *domain.CanalState) (Result, error) {
	if err := resolveGroup(node, state, planeCodes, 120); err != nil {
		return Result{}, err
	}
	if err := resolveGroup(node, state, speedModeCodes, 100); err != nil {
		return Result{}, err
	}
	if err := resolveGroup(node, state, feedModeFanucCodes, 101); err != nil {
		return Result{}, err
	}
	if err := resolveGroup(node, state, feedModeSiemensCodes, 101); err != nil {
		return Result{}, err
	}
	resolveFeedPerRev(node, state)
	if err := resolveGroup(node, state, unitsCodes, 0); err != nil {
		return Result{}, err
	}
	if err := resolvePolar(node, state); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

// resolveGroup sets state's modal group when exactly one code of the group
// appears on node; two distinct codes of the same group on one block is a
// conflict raised as a CodeErrors with conflictCode (0 means advisory-only,
// no conflict check — used for the units group, which machines.py treats as
// an informational flag rather than an exclusive group).
func resolveGroup(node *domain.CommandNode, state *domain.CanalState, codes map[string]string, conflictCode int) error {
	var found string
	group := ""
	for g := range node.GCodes {
		if grp, ok := codes[g]; ok {
			group = grp
			if found != "" && found != g && conflictCode != 0 {
				return ncerrors.NewCodeError(conflictCode, node.LineNr, 0, g, "modal conflict", "")
			}
			found = g
		}
	}
	if found != "" {
		state.SetModal(group, found)
	}
	return nil
}

// resolveFeedPerRev normalizes the vendor-specific feed-mode code pair
// (Fanuc G98/G99, Siemens G94/G95) into a single vendor-neutral
// state.Extra["feed_per_rev"] bool, so motion's feed-rate conversion never
// has to branch on control family: it only asks "is this canal currently
// in feed-per-revolution mode", not "which code pair does this machine
// use for that".
func resolveFeedPerRev(node *domain.CommandNode, state *domain.CanalState) {
	switch {
	case node.HasGCode("G99"), node.HasGCode("G95"):
		state.Extra["feed_per_rev"] = domain.BoolValue(true)
	case node.HasGCode("G98"), node.HasGCode("G94"):
		state.Extra["feed_per_rev"] = domain.BoolValue(false)
	}
}

// resolvePolar handles G112/G113 by recording the polar modal code and the
// polar_active flag. It does not change or restore the plane, remap C/H
// onto a polar axis, or swap G2/G3.
func resolvePolar(node *domain.CommandNode, state *domain.CanalState) error {
	g112 := node.HasGCode("G112")
	g113 := node.HasGCode("G113")
	if g112 && g113 {
		return ncerrors.NewCodeError(110, node.LineNr, 0, "G112/G113", "modal conflict", "")
	}
	if g112 {
		state.SetModal("polar", "G112")
		state.Extra["polar_active"] = domain.BoolValue(true)
	}
	if g113 {
		state.SetModal("polar", "G113")
		state.Extra["polar_active"] = domain.BoolValue(false)
	}
	return nil
}
