// Package canalsync aligns cooperative wait-codes across 2 or 3 canals,
// grounded on ncplot7py/infrastructure/machines/star_canal_syncro.py's
// CanalSynchro. The wait-code-to-group table ("12"/"13"/"23"/"123") is
// fixed in GroupFor; there is no API for registering another table.
package canalsync

import (
	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

const maxIterations = 9999

// wait describes a wait-code observed at one canal's current cursor node:
// Code is the M-value, Group is the synchronization group it belongs to
// ("" means the node is not a wait at all).
type wait struct {
	Code  int
	Group string
}

// GroupFor classifies an M-code (plus optional P-parameter) into a wait
// group, matching §4.11: {40,41,82,83} -> "12", {131,133} -> "13",
// 200<=code<999 -> P-parameter or "123" by default.
func GroupFor(code int, pParam int, hasP bool) string {
	switch code {
	case 40, 41, 82, 83:
		return "12"
	case 131, 133:
		return "13"
	}
	if code >= 200 && code < 999 {
		if hasP {
			switch pParam {
			case 12, 13, 23, 123:
				return groupName(pParam)
			}
			return "123"
		}
		return "123"
	}
	return ""
}

func groupName(p int) string {
	switch p {
	case 12:
		return "12"
	case 13:
		return "13"
	case 23:
		return "23"
	case 123:
		return "123"
	}
	return "123"
}

func waitAt(node *domain.CommandNode) wait {
	if node == nil {
		return wait{}
	}
	mStr, ok := node.Param("M")
	if !ok {
		return wait{}
	}
	code := atoiOrZero(mStr)
	if code == 0 || code >= 999 {
		return wait{}
	}
	if !(code > 199 || code == 40 || code == 41 || code == 82 || code == 83 || code == 131 || code == 133) {
		return wait{}
	}
	pParam, hasP := node.Param("P")
	p := 0
	if hasP {
		p = atoiOrZero(pParam)
	}
	return wait{Code: code, Group: GroupFor(code, p, hasP)}
}

func atoiOrZero(s string) int {
	n := 0
	neg := false
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	if neg {
		n = -n
	}
	return n
}

// Synchronize dispatches on the number of canals given (only 2- and 3-way
// synchronization is supported, matching the original). paths and nodes
// must have matching lengths per canal.
func Synchronize(paths [][]domain.ToolPathEntry, nodes [][]*domain.CommandNode) error {
	if len(paths) != len(nodes) {
		return ncerrors.NewCanalStarError(201, 0, "", "canal count mismatch between tool paths and node lists", "")
	}
	switch len(paths) {
	case 2:
		return synchronize2(paths, nodes)
	case 3:
		return synchronize3(paths, nodes)
	default:
		return nil
	}
}

func synchronize2(paths [][]domain.ToolPathEntry, nodes [][]*domain.CommandNode) error {
	nodes1, nodes2 := nodes[0], nodes[1]
	i1, i2 := 0, 0
	var t1, t2 float64
	iter := -1

	for (i1 < len(nodes1) || i2 < len(nodes2)) && iter <= maxIterations {
		iter++
		var w1, w2 wait
		if i1 < len(nodes1) {
			w1 = waitAt(nodes1[i1])
		}
		if i2 < len(nodes2) {
			w2 = waitAt(nodes2[i2])
		}

		if i1 < len(nodes1) {
			t1 += paths[0][i1].Duration
		}
		if i2 < len(nodes2) {
			t2 += paths[1][i2].Duration
		}

		if w1.Code == 0 {
			i1++
		}
		if w2.Code == 0 {
			i2++
		} else if w1.Code == w2.Code && w1.Code != 0 {
			if t2 > t1 {
				paths[0][i1].Duration = t2 - t1
			} else {
				paths[1][i2].Duration = t1 - t2
			}
			t1, t2 = 0, 0
			i1++
			i2++
		}
		if w1.Code != 0 && w2.Code != 0 && w1.Code != w2.Code {
			return ncerrors.NewCanalStarError(202, 0, "", "wait code mismatch between canal 1 and 2", "")
		}
		if iter >= maxIterations-5 {
			return ncerrors.NewCanalStarError(208, 0, "", "synchronizer iteration cap exceeded", "")
		}
	}
	return nil
}

func synchronize3(paths [][]domain.ToolPathEntry, nodes [][]*domain.CommandNode) error {
	nodes1, nodes2, nodes3 := nodes[0], nodes[1], nodes[2]
	i1, i2, i3 := 0, 0, 0
	var t1, t2, t3 float64
	iter := -1

	for (i1 < len(nodes1) || i2 < len(nodes2) || i3 < len(nodes3)) && iter <= maxIterations+1 {
		iter++
		var w1, w2, w3 wait
		if i1 < len(nodes1) {
			w1 = waitAt(nodes1[i1])
		}
		if i2 < len(nodes2) {
			w2 = waitAt(nodes2[i2])
		}
		if i3 < len(nodes3) {
			w3 = waitAt(nodes3[i3])
		}

		if i1 < len(nodes1) {
			t1 += paths[0][i1].Duration
		}
		if i2 < len(nodes2) {
			t2 += paths[1][i2].Duration
		}
		if i3 < len(nodes3) {
			t3 += paths[2][i3].Duration
		}

		if w2.Group == "12" && w2.Code == w1.Code && w2.Code != 0 {
			if t2 > t1 {
				paths[0][i1].Duration = t2 - t1
			} else {
				paths[1][i2].Duration = t1 - t2
			}
			t1, t2 = 0, 0
			i1++
			i2++
		}
		if w1.Group == "13" && w3.Code == w1.Code && w1.Code != 0 {
			if t3 > t1 {
				paths[0][i1].Duration = t3 - t1
			} else {
				paths[2][i3].Duration = t1 - t3
			}
			t1, t3 = 0, 0
			i1++
			i3++
		}
		if w2.Group == "23" && w3.Code == w2.Code && w2.Code != 0 {
			if t3 > t2 {
				paths[1][i2].Duration = t3 - t2
			} else {
				paths[2][i3].Duration = t2 - t3
			}
			t2, t3 = 0, 0
			i2++
			i3++
		}
		if w1.Group == "123" && w1.Code == w2.Code && w2.Code == w3.Code && w1.Code != 0 {
			switch {
			case t3 > t1 && t3 > t2:
				paths[0][i1].Duration = t3 - t1
				paths[1][i2].Duration = t3 - t2
			case t2 > t1 && t2 > t3:
				paths[0][i1].Duration = t2 - t1
				paths[2][i3].Duration = t2 - t3
			default:
				paths[1][i2].Duration = t1 - t2
				paths[2][i3].Duration = t1 - t3
			}
			t1, t2, t3 = 0, 0, 0
			i1++
			i2++
			i3++
		}

		if w1.Group == "" {
			i1++
		}
		if w2.Group == "" {
			i2++
		}
		if w3.Group == "" {
			i3++
		}

		if w2.Group == "12" && w1.Group == "12" && w2.Code != w1.Code {
			return ncerrors.NewCanalStarError(204, 0, "", "wait code mismatch between canal 1 and 2", "")
		}
		if w3.Group == "13" && w1.Group == "13" && w3.Code != w1.Code {
			return ncerrors.NewCanalStarError(205, 0, "", "wait code mismatch between canal 1 and 3", "")
		}
		if w3.Group == "23" && w2.Group == "23" && w3.Code != w2.Code {
			return ncerrors.NewCanalStarError(206, 0, "", "wait code mismatch between canal 2 and 3", "")
		}
		if w3.Group == "123" && w1.Group == "123" && w2.Group == "123" && (w3.Code != w1.Code || w3.Code != w2.Code) {
			return ncerrors.NewCanalStarError(207, 0, "", "wait code mismatch across all three canals", "")
		}
		if iter >= maxIterations-3 {
			return ncerrors.NewCanalStarError(208, 0, "", "synchronizer iteration cap exceeded", "")
		}
	}
	return nil
}
