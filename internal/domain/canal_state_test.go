package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCanalState_LatheDefaultsXToDiameter(t *testing.T) {
	cfg := &MachineConfig{Name: "FANUC_STAR", IsLathe: true, DefaultFeedMode: "G95"}
	state := NewCanalState(cfg)

	assert.True(t, state.IsDiameterAxis("X"))
	assert.False(t, state.IsDiameterAxis("Y"))
	assert.False(t, state.IsDiameterAxis("Z"))
}

func TestNewCanalState_MillKeepsRadiusUnits(t *testing.T) {
	cfg := &MachineConfig{Name: "FANUC_GENERIC", IsLathe: false, DefaultFeedMode: "G94"}
	state := NewCanalState(cfg)

	assert.False(t, state.IsDiameterAxis("X"))
}

func TestNormalizeAxisValue_DiameterHalvesProgrammedValue(t *testing.T) {
	state := NewCanalState(&MachineConfig{IsLathe: true})

	assert.InDelta(t, 5.0, state.NormalizeAxisValue("X", 10.0), 1e-9)
	assert.InDelta(t, -5.0, state.NormalizeAxisValue("X", -10.0), 1e-9)
}

func TestNormalizeAxisValue_RadiusAxisPassesThrough(t *testing.T) {
	state := NewCanalState(&MachineConfig{IsLathe: true})

	assert.InDelta(t, 10.0, state.NormalizeAxisValue("Y", 10.0), 1e-9)
	assert.InDelta(t, 10.0, state.NormalizeAxisValue("Z", 10.0), 1e-9)
}

func TestNewCanalState_FeedPerRevDefaultsFromConfig(t *testing.T) {
	star := NewCanalState(&MachineConfig{DefaultFeedMode: "G95"})
	v, ok := star.Extra["feed_per_rev"]
	assert.True(t, ok)
	perRev, _ := v.AsBool()
	assert.True(t, perRev)

	generic := NewCanalState(&MachineConfig{DefaultFeedMode: "G94"})
	_, ok = generic.Extra["feed_per_rev"]
	assert.False(t, ok)
}

func TestResolveTarget_AbsoluteInheritsUnspecifiedAxes(t *testing.T) {
	state := NewCanalState(&MachineConfig{})
	state.SetAxis("X", 1)
	state.SetAxis("Y", 2)
	state.SetAxis("Z", 3)

	resolved := state.ResolveTarget(map[string]float64{"X": 10}, true)
	assert.InDelta(t, 10.0, resolved["X"], 1e-9)
	assert.InDelta(t, 2.0, resolved["Y"], 1e-9)
	assert.InDelta(t, 3.0, resolved["Z"], 1e-9)
}

func TestResolveTarget_RelativeAddsToCurrentPosition(t *testing.T) {
	state := NewCanalState(&MachineConfig{})
	state.SetAxis("X", 1)
	state.SetAxis("Y", 2)

	resolved := state.ResolveTarget(map[string]float64{"X": 5}, false)
	assert.InDelta(t, 6.0, resolved["X"], 1e-9)
	assert.InDelta(t, 2.0, resolved["Y"], 1e-9)
}

func TestModal_SetAndGet(t *testing.T) {
	state := NewCanalState(&MachineConfig{DefaultPlane: "G17"})
	assert.Equal(t, "G17", state.Modal("plane"))

	state.SetModal("plane", "G18")
	assert.Equal(t, "G18", state.Modal("plane"))
	assert.Equal(t, "", state.Modal("nonexistent_group"))
}
