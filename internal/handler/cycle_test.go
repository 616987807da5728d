package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
)

func TestCycleHandler_G81ActivatesAndExecutesFourPointSequence(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	node := domain.NewCommandNode(1)
	node.GCodes.Add("G81")
	node.Parameters["X"] = "5"
	node.Parameters["Y"] = "3"
	node.Parameters["R"] = "2"
	node.Parameters["Z"] = "-10"
	node.Parameters["F"] = "60"

	res, err := CycleHandler{}.Handle(node, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Len(t, res.Points, 4)

	assert.InDelta(t, 10.0, res.Points[0].Z, 1e-9) // rapid to X/Y at current Z
	assert.InDelta(t, 2.0, res.Points[1].Z, 1e-9)  // rapid to R-plane
	assert.InDelta(t, -10.0, res.Points[2].Z, 1e-9) // feed to Z bottom
	assert.InDelta(t, 10.0, res.Points[3].Z, 1e-9)  // G98 retract to initial Z
}

func TestCycleHandler_G99RetractsToRPlaneInsteadOfInitialZ(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	g99 := domain.NewCommandNode(1)
	g99.GCodes.Add("G99")
	_, err := CycleHandler{}.Handle(g99, state)
	require.NoError(t, err)

	node := domain.NewCommandNode(2)
	node.GCodes.Add("G81")
	node.Parameters["X"] = "5"
	node.Parameters["R"] = "2"
	node.Parameters["Z"] = "-10"

	res, err := CycleHandler{}.Handle(node, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	assert.InDelta(t, 2.0, res.Points[3].Z, 1e-9)
}

func TestCycleHandler_G80CancelsActiveCycle(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	def := domain.NewCommandNode(1)
	def.GCodes.Add("G81")
	def.Parameters["X"] = "1"
	def.Parameters["R"] = "1"
	def.Parameters["Z"] = "-1"
	_, err := CycleHandler{}.Handle(def, state)
	require.NoError(t, err)
	_, active := state.Extra["active_cycle"]
	require.True(t, active)

	cancel := domain.NewCommandNode(2)
	cancel.GCodes.Add("G80")
	res, err := CycleHandler{}.Handle(cancel, state)
	require.NoError(t, err)
	assert.False(t, res.Handled)
	_, stillActive := state.Extra["active_cycle"]
	assert.False(t, stillActive)
}

func TestCycleHandler_RepeatsAtNewXYWithoutRedefinition(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	def := domain.NewCommandNode(1)
	def.GCodes.Add("G81")
	def.Parameters["X"] = "1"
	def.Parameters["R"] = "2"
	def.Parameters["Z"] = "-5"
	_, err := CycleHandler{}.Handle(def, state)
	require.NoError(t, err)

	repeat := domain.NewCommandNode(2)
	repeat.Parameters["X"] = "10"
	res, err := CycleHandler{}.Handle(repeat, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	assert.InDelta(t, 10.0, res.Points[0].X, 1e-9)
}

func TestCycleHandler_NamedCycleCallStagesTuple(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.FeedRate = 120
	node := domain.NewCommandNode(1)
	// Siemens-style MCALL CYCLE81(RTP, RFP, SDIS, DP, DPR): rapid plane is
	// the reference plane (RFP=2) plus its safety distance (SDIS=0.5).
	cmd := "MCALL CYCLE81(10, 2, 0.5, -5, 0)"
	node.VariableCommand = &cmd

	_, err := CycleHandler{}.Handle(node, state)
	require.NoError(t, err)
	cyc, ok := state.Extra["active_named_cycle"].AsCycle()
	require.True(t, ok)
	assert.Equal(t, "CYCLE81", cyc.Name)
	assert.InDelta(t, 2.5, cyc.R, 1e-9)
	assert.InDelta(t, -5.0, cyc.Z, 1e-9)
	assert.InDelta(t, 120.0, cyc.F, 1e-9)
}

func TestCycleHandler_BareMCALLCancelsActiveNamedCycle(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	define := domain.NewCommandNode(1)
	cmd := "MCALL CYCLE81(10, 2, 0.5, -5, 0)"
	define.VariableCommand = &cmd
	_, err := CycleHandler{}.Handle(define, state)
	require.NoError(t, err)
	_, active := state.Extra["active_named_cycle"]
	require.True(t, active)

	cancel := domain.NewCommandNode(2)
	bare := "MCALL"
	cancel.VariableCommand = &bare
	_, err = CycleHandler{}.Handle(cancel, state)
	require.NoError(t, err)
	_, stillActive := state.Extra["active_named_cycle"]
	assert.False(t, stillActive)
}

func TestCycleHandler_HOLES1DrillsLinearPattern(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	state.FeedRate = 100
	define := domain.NewCommandNode(1)
	cmd := "MCALL CYCLE81(10, 0, 2, -10, 0)"
	define.VariableCommand = &cmd
	_, err := CycleHandler{}.Handle(define, state)
	require.NoError(t, err)

	// HOLES1(SPCA=0, SPCO=0, STA1=0, FDIS=5, DBH=5, NUM=3): three holes
	// along the X axis at x=5, x=10, x=15.
	pattern := domain.NewCommandNode(2)
	call := "HOLES1(0, 0, 0, 5, 5, 3)"
	pattern.VariableCommand = &call

	res, err := CycleHandler{}.Handle(pattern, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Len(t, res.Points, 12) // 4 points per hole x 3 holes

	assert.InDelta(t, 5.0, res.Points[0].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[0].Y, 1e-9)
	assert.InDelta(t, 10.0, res.Points[4].X, 1e-9)
	assert.InDelta(t, 15.0, res.Points[8].X, 1e-9)
	// every hole feeds down to DP=-10 at its third point.
	assert.InDelta(t, -10.0, res.Points[2].Z, 1e-9)
	assert.InDelta(t, -10.0, res.Points[6].Z, 1e-9)
	assert.InDelta(t, -10.0, res.Points[10].Z, 1e-9)
}

func TestCycleHandler_HOLES2DrillsCircularPattern(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	state.FeedRate = 100
	define := domain.NewCommandNode(1)
	cmd := "MCALL CYCLE81(10, 0, 2, -5, 0)"
	define.VariableCommand = &cmd
	_, err := CycleHandler{}.Handle(define, state)
	require.NoError(t, err)

	// HOLES2(CPA=0, CPO=0, RAD=10, STA1=0, INDA=90, NUM=4): four holes at
	// the cardinal points of a radius-10 circle.
	pattern := domain.NewCommandNode(2)
	call := "HOLES2(0, 0, 10, 0, 90, 4)"
	pattern.VariableCommand = &call

	res, err := CycleHandler{}.Handle(pattern, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Len(t, res.Points, 16)

	assert.InDelta(t, 10.0, res.Points[0].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[0].Y, 1e-9)
	assert.InDelta(t, 0.0, res.Points[4].X, 1e-9)
	assert.InDelta(t, 10.0, res.Points[4].Y, 1e-9)
	assert.InDelta(t, -10.0, res.Points[8].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[8].Y, 1e-9)
	assert.InDelta(t, 0.0, res.Points[12].X, 1e-9)
	assert.InDelta(t, -10.0, res.Points[12].Y, 1e-9)
}

func TestCycleHandler_CYCLE801DrillsRotatedGrid(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	state.FeedRate = 100
	define := domain.NewCommandNode(1)
	cmd := "MCALL CYCLE81(10, 0, 2, -3, 0)"
	define.VariableCommand = &cmd
	_, err := CycleHandler{}.Handle(define, state)
	require.NoError(t, err)

	// CYCLE801(SPCA=0, SPCO=0, STA1=0, DIS1=5, DIS2=5, NUM1=2, NUM2=2): an
	// unrotated 2x2 grid at (0,0), (0,5), (5,0), (5,5).
	pattern := domain.NewCommandNode(2)
	call := "CYCLE801(0, 0, 0, 5, 5, 2, 2)"
	pattern.VariableCommand = &call

	res, err := CycleHandler{}.Handle(pattern, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Len(t, res.Points, 16)

	assert.InDelta(t, 0.0, res.Points[0].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[0].Y, 1e-9)
	assert.InDelta(t, 0.0, res.Points[4].X, 1e-9)
	assert.InDelta(t, 5.0, res.Points[4].Y, 1e-9)
	assert.InDelta(t, 5.0, res.Points[8].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[8].Y, 1e-9)
	assert.InDelta(t, 5.0, res.Points[12].X, 1e-9)
	assert.InDelta(t, 5.0, res.Points[12].Y, 1e-9)
}

func TestCycleHandler_LONGHOLEFeedsRadialSlots(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	state.SetAxis("Z", 10)
	state.FeedRate = 100

	// LONGHOLE(RTP=10, RFP=0, SDIS=2, DP=-5, DPR=0, NUM=2, LENG=4, CPA=0,
	// CPO=0, RAD=10, STA1=0, INDA=180): two 4mm slots on opposite sides of
	// a radius-10 circle, fed down to absolute depth -5.
	node := domain.NewCommandNode(1)
	call := "LONGHOLE(10, 0, 2, -5, 0, 2, 4, 0, 0, 10, 0, 180)"
	node.VariableCommand = &call

	res, err := CycleHandler{}.Handle(node, state)
	require.NoError(t, err)
	require.True(t, res.Handled)
	require.Len(t, res.Points, 10) // 5 points per slot x 2 slots

	// first slot centered at (10,0) along the radial direction, length 4.
	assert.InDelta(t, 8.0, res.Points[0].X, 1e-9)
	assert.InDelta(t, 0.0, res.Points[0].Y, 1e-9)
	assert.InDelta(t, -5.0, res.Points[2].Z, 1e-9)
	assert.InDelta(t, 12.0, res.Points[3].X, 1e-9)
	// second slot, 180 degrees around, centered at (-10,0).
	assert.InDelta(t, -8.0, res.Points[5].X, 1e-9)
	assert.InDelta(t, -5.0, res.Points[7].Z, 1e-9)
}

func TestCycleHandler_BareBlockWithNoActiveCycleIsNoop(t *testing.T) {
	state := domain.NewCanalState(&domain.MachineConfig{})
	node := domain.NewCommandNode(1)

	res, err := CycleHandler{}.Handle(node, state)
	require.NoError(t, err)
	assert.False(t, res.Handled)
}
