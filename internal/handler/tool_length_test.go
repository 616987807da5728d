package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
)

func TestToolLengthHandler_G43AddsPositiveOffset(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G43")
	node.Parameters["H"] = "12.5"

	_, err := ToolLengthHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, state.Offsets["Z"], 1e-9)
	_, stillPresent := node.Param("H")
	assert.False(t, stillPresent)
}

func TestToolLengthHandler_G44NegatesOffset(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G44")
	node.Parameters["H"] = "12.5"

	_, err := ToolLengthHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.InDelta(t, -12.5, state.Offsets["Z"], 1e-9)
}

func TestToolLengthHandler_G49ClearsOffset(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.Offsets["Z"] = 7.0
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G49")

	_, err := ToolLengthHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.Equal(t, 0.0, state.Offsets["Z"])
}

func TestToolLengthHandler_NoGCodeIsNoop(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G1")

	res, err := ToolLengthHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}
