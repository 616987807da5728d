package domain

// ToolComp is a staged or active cutter-compensation tuple, preloaded per
// tool number from the request's toolValues and consumed by the tool and
// cutter-comp handlers.
type ToolComp struct {
	QValue int     // quadrant, 1..9
	RValue float64 // radius, > 0
}

// ActiveNamedCycle is the small parameter tuple a named-cycle invocation
// (CYCLE81, POCKET1, …) stashes so a following MCALL-modal block at a new
// X/Y can replay it without re-parsing the original call.
type ActiveNamedCycle struct {
	Name   string
	R      float64
	Z      float64
	F      float64
	Dwell  float64
	Params map[string]float64
}

// ExtraValue is the closed variant stored in CanalState.Extra, replacing
// an open map[string]any bag per the spec's design notes (§9): every
// vendor flag the handlers read/write has a named Go-typed slot here.
type ExtraValue struct {
	Bool    *bool
	Int     *int
	Float   *float64
	String  *string
	Cycle   *ActiveNamedCycle
	ToolMap map[int]ToolComp
}

func BoolValue(v bool) ExtraValue      { return ExtraValue{Bool: &v} }
func IntValue(v int) ExtraValue        { return ExtraValue{Int: &v} }
func FloatValue(v float64) ExtraValue  { return ExtraValue{Float: &v} }
func StringValue(v string) ExtraValue  { return ExtraValue{String: &v} }
func CycleValue(v ActiveNamedCycle) ExtraValue {
	return ExtraValue{Cycle: &v}
}
func ToolMapValue(v map[int]ToolComp) ExtraValue { return ExtraValue{ToolMap: v} }

// AsFloat returns the float payload and whether one is set, also accepting
// an Int payload widened to float64 for callers that don't care which.
func (e ExtraValue) AsFloat() (float64, bool) {
	if e.Float != nil {
		return *e.Float, true
	}
	if e.Int != nil {
		return float64(*e.Int), true
	}
	return 0, false
}

func (e ExtraValue) AsString() (string, bool) {
	if e.String != nil {
		return *e.String, true
	}
	return "", false
}

func (e ExtraValue) AsBool() (bool, bool) {
	if e.Bool != nil {
		return *e.Bool, true
	}
	return false, false
}

func (e ExtraValue) AsCycle() (*ActiveNamedCycle, bool) {
	if e.Cycle != nil {
		return e.Cycle, true
	}
	return nil, false
}

// CanalState is the per-canal mutable machine state threaded through the
// handler chain. It is created once per canal, mutated monotonically
// during execution, and read-only afterward.
type CanalState struct {
	Axes    map[string]float64
	Offsets map[string]float64

	// AxisUnits maps an axis letter to "radius" or "diameter"; diameter
	// axes divide incoming raw values by 2 before use (lathe X convention).
	AxisUnits          map[string]string
	AxisMultipliers    map[string]float64
	AxisOverrideFeeds  map[string]float64

	// ModalGroups maps a group name to the currently active code; at most
	// one code is active per group.
	ModalGroups map[string]string

	FeedRate     float64
	SpindleSpeed float64
	ToolRadius   float64
	ToolQuadrant int

	// Parameters maps a numeric-string identifier (without sigil) to its
	// macro/#n/Rn variable value.
	Parameters map[string]float64

	// Extra is the typed open-extension bag for vendor flags.
	Extra map[string]ExtraValue

	MachineConfig *MachineConfig
}

// NewCanalState returns a state with default axes/units and the given
// machine config; feed mode and plane default from the config.
func NewCanalState(cfg *MachineConfig) *CanalState {
	s := &CanalState{
		Axes:              map[string]float64{"X": 0, "Y": 0, "Z": 0},
		Offsets:           map[string]float64{},
		AxisUnits:         map[string]string{"X": "radius", "Y": "radius", "Z": "radius"},
		AxisMultipliers:   map[string]float64{},
		AxisOverrideFeeds: map[string]float64{},
		ModalGroups:       map[string]string{},
		Parameters:        map[string]float64{},
		Extra:             map[string]ExtraValue{},
		MachineConfig:     cfg,
	}
	if cfg != nil {
		s.ModalGroups["plane"] = cfg.DefaultPlane
		s.ModalGroups["feed_mode"] = cfg.DefaultFeedMode
		s.ModalGroups["distance"] = "G90"
		// DefaultFeedMode is a config literal ("G94"/"G95"/"G98"/"G99")
		// whose code pair depends on the family; normalize it once here so
		// downstream feed-per-rev logic never has to know which pair a
		// given control family uses (§B, feed-mode handler).
		if cfg.DefaultFeedMode == "G95" || cfg.DefaultFeedMode == "G99" {
			s.Extra["feed_per_rev"] = BoolValue(true)
		}
		if cfg.IsLathe {
			s.AxisUnits["X"] = "diameter"
		}
	}
	return s
}

// Axis returns the current coordinate for name, defaulting to 0.
func (s *CanalState) Axis(name string) float64 {
	return s.Axes[name]
}

// SetAxis updates the current coordinate for name.
func (s *CanalState) SetAxis(name string, value float64) {
	s.Axes[name] = value
}

// UpdateAxes merges updates into Axes.
func (s *CanalState) UpdateAxes(updates map[string]float64) {
	for k, v := range updates {
		s.Axes[k] = v
	}
}

// IsDiameterAxis reports whether name is configured as a diameter axis.
func (s *CanalState) IsDiameterAxis(name string) bool {
	return s.AxisUnits[name] == "diameter"
}

// NormalizeAxisValue halves value when name is a diameter axis, matching
// the lathe X convention: the programmed value is twice the true radius.
func (s *CanalState) NormalizeAxisValue(name string, value float64) float64 {
	if s.IsDiameterAxis(name) {
		return value / 2.0
	}
	return value
}

// Modal returns the active code for group, or "" if none is set.
func (s *CanalState) Modal(group string) string {
	return s.ModalGroups[group]
}

// SetModal sets the active code for group.
func (s *CanalState) SetModal(group, code string) {
	s.ModalGroups[group] = code
}

// ResolveTarget returns fully-resolved absolute coordinates for a partial
// target spec. In absolute mode, axes missing from spec inherit the
// current position; in relative (G91) mode, spec values are deltas.
func (s *CanalState) ResolveTarget(spec map[string]float64, absolute bool) map[string]float64 {
	resolved := make(map[string]float64, len(s.Axes)+len(spec))
	seen := make(map[string]struct{}, len(s.Axes)+len(spec))
	for ax := range s.Axes {
		seen[ax] = struct{}{}
	}
	for ax := range spec {
		seen[ax] = struct{}{}
	}
	for ax := range seen {
		if absolute {
			if v, ok := spec[ax]; ok {
				resolved[ax] = v
			} else {
				resolved[ax] = s.Axis(ax)
			}
		} else {
			resolved[ax] = s.Axis(ax) + spec[ax]
		}
	}
	return resolved
}

// GetExtraFloat reads a float-typed Extra entry, falling back to def.
func (s *CanalState) GetExtraFloat(key string, def float64) float64 {
	if v, ok := s.Extra[key]; ok {
		if f, ok := v.AsFloat(); ok {
			return f
		}
	}
	return def
}

// GetExtraString reads a string-typed Extra entry, falling back to def.
func (s *CanalState) GetExtraString(key, def string) string {
	if v, ok := s.Extra[key]; ok {
		if str, ok := v.AsString(); ok {
			return str
		}
	}
	return def
}

// GetExtraBool reads a bool-typed Extra entry, falling back to def.
func (s *CanalState) GetExtraBool(key string, def bool) bool {
	if v, ok := s.Extra[key]; ok {
		if b, ok := v.AsBool(); ok {
			return b
		}
	}
	return def
}
