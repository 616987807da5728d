package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

func TestCutterCompHandler_G41ActivatesWithStagedRadiusAndQuadrant(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.Extra["pending_tool_radius"] = domain.FloatValue(2.0)
	state.Extra["pending_tool_quadrant"] = domain.IntValue(3)
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G41")

	_, err := CutterCompHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, state.ToolRadius, 1e-9)
	assert.Equal(t, 3, state.ToolQuadrant)
}

func TestCutterCompHandler_G41WithoutStagedRadiusRaisesCode107(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G41")

	_, err := CutterCompHandler{}.Handle(node, state)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, -107, ncErr.Code())
}

func TestCutterCompHandler_G41WithInvalidQuadrantRaisesCode102(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.Extra["pending_tool_radius"] = domain.FloatValue(2.0)
	state.Extra["pending_tool_quadrant"] = domain.IntValue(12)
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G41")

	_, err := CutterCompHandler{}.Handle(node, state)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, -102, ncErr.Code())
}

func TestCutterCompHandler_ConflictingDirectionsOnOneBlock(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G41")
	node.GCodes.Add("G42")

	_, err := CutterCompHandler{}.Handle(node, state)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, -104, ncErr.Code())
}

func TestCutterCompHandler_SwitchingDirectionWithoutG40Conflicts(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.Extra["pending_tool_radius"] = domain.FloatValue(2.0)
	state.Extra["pending_tool_quadrant"] = domain.IntValue(3)
	first := domain.NewCommandNode(1)
	first.GCodes.Add("G41")
	_, err := CutterCompHandler{}.Handle(first, state)
	require.NoError(t, err)

	second := domain.NewCommandNode(2)
	second.GCodes.Add("G42")
	res, err := CutterCompHandler{}.Handle(second, state)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, -104, ncErr.Code())
	assert.False(t, res.Handled)
}

func TestCutterCompHandler_G40Cancels(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.ToolRadius = 4.0
	state.ToolQuadrant = 2
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G40")

	_, err := CutterCompHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.Equal(t, 0.0, state.ToolRadius)
	assert.Equal(t, 0, state.ToolQuadrant)
}

func TestCutterCompHandler_DParameterIsConsumed(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.Extra["pending_tool_radius"] = domain.FloatValue(1.0)
	state.Extra["pending_tool_quadrant"] = domain.IntValue(1)
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G41")
	node.Parameters["D"] = "5"

	_, err := CutterCompHandler{}.Handle(node, state)
	require.NoError(t, err)
	dv, ok := state.Extra["cutter_comp_d"].AsFloat()
	require.True(t, ok)
	assert.Equal(t, 5.0, dv)
	_, stillPresent := node.Param("D")
	assert.False(t, stillPresent)
}
