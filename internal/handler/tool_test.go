package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

func fanucGenericConfig() *domain.MachineConfig {
	return &domain.MachineConfig{Name: "FANUC_GENERIC", ControlFamily: "FANUC", ToolRangeMin: 100, ToolRangeMax: 9999}
}

func fanucLatheConfig() *domain.MachineConfig {
	return &domain.MachineConfig{Name: "FANUC_STAR", ControlFamily: "FANUC", ToolRangeMin: 1, ToolRangeMax: 99}
}

func TestToolHandler_NumericToolWithinRange(t *testing.T) {
	state := domain.NewCanalState(fanucGenericConfig())
	node := domain.NewCommandNode(1)
	node.Parameters["T"] = "150"

	_, err := ToolHandler{}.Handle(node, state)
	require.NoError(t, err)
	v, ok := state.Extra["current_tool_number"].AsFloat()
	require.True(t, ok)
	assert.Equal(t, 150.0, v)
}

func TestToolHandler_OutOfRangeToolRaisesCode200(t *testing.T) {
	state := domain.NewCanalState(fanucGenericConfig())
	node := domain.NewCommandNode(1)
	node.Parameters["T"] = "50"

	_, err := ToolHandler{}.Handle(node, state)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, 200, ncErr.Code())
}

func TestToolHandler_FanucLatheAllowsToolsAbove99(t *testing.T) {
	state := domain.NewCanalState(fanucLatheConfig())
	node := domain.NewCommandNode(1)
	node.Parameters["T"] = "101"

	_, err := ToolHandler{}.Handle(node, state)
	require.NoError(t, err)
}

func TestToolHandler_SiemensNamedTool(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{ControlFamily: "SIEMENS"})
	node := domain.NewCommandNode(1)
	node.Parameters["T"] = `"DRILL_8MM"`

	_, err := ToolHandler{}.Handle(node, state)
	require.NoError(t, err)
	name, ok := state.Extra["current_tool_name"].AsString()
	require.True(t, ok)
	assert.Equal(t, "DRILL_8MM", name)
}

func TestToolHandler_StagesCompensationForKnownTool(t *testing.T) {
	state := domain.NewCanalState(fanucGenericConfig())
	state.Extra["tool_compensation_data"] = domain.ToolMapValue(map[int]domain.ToolComp{
		150: {QValue: 3, RValue: 2.5},
	})
	node := domain.NewCommandNode(1)
	node.Parameters["T"] = "150"

	_, err := ToolHandler{}.Handle(node, state)
	require.NoError(t, err)
	r, ok := state.Extra["pending_tool_radius"].AsFloat()
	require.True(t, ok)
	assert.InDelta(t, 2.5, r, 1e-9)
	q, ok := state.Extra["pending_tool_quadrant"].AsFloat()
	require.True(t, ok)
	assert.Equal(t, 3.0, q)
}

func TestToolHandler_NoTParamIsNoop(t *testing.T) {
	state := domain.NewCanalState(fanucGenericConfig())
	node := domain.NewCommandNode(1)

	res, err := ToolHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}
