package domain

// StringSet is a small set of strings with insertion-order-irrelevant
// semantics, matching the parser's g_codes/dddp_command fields.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether value is a member of the set.
func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// Add inserts value into the set.
func (s StringSet) Add(value string) {
	s[value] = struct{}{}
}

// Slice returns the set's members; order is unspecified.
func (s StringSet) Slice() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	return out
}

// CommandNode is one logical NC block: one source line, or one `;`-joined
// command. It is the sole currency between the parser and the handler
// chain; handlers may rewrite Parameters/GCodes in place (normalization)
// and Next (control-flow jumps) but never Prev, LineNr or the source text.
type CommandNode struct {
	GCodes StringSet
	// Parameters maps an upper-case single-letter key to its textual value.
	// Values stay textual (never pre-parsed to float) so round-tripping
	// re-emission such as "R=R10" keeps exact source formatting.
	Parameters map[string]string

	// LoopCommand carries the raw GOTO/IF/WHILE/DO/END payload for a block
	// classified as control-flow; nil for ordinary blocks.
	LoopCommand *string
	// VariableCommand carries a macro assignment ("#500=[10+5]") or a
	// vendor named-cycle call ("CYCLE81(...)"); nil otherwise.
	VariableCommand *string
	// DDDPCommand holds chamfer/corner-radius modifiers following a comma.
	DDDPCommand StringSet

	// LineNr is the 1-based source line index, preserved through execution
	// for error reporting and programExec.
	LineNr int

	// Next/Prev are set up by the canal runtime before execution so
	// control-flow handlers can redirect the walk.
	Next *CommandNode
	Prev *CommandNode
}

// NewCommandNode returns a node with its set fields initialized empty.
func NewCommandNode(lineNr int) *CommandNode {
	return &CommandNode{
		GCodes:      NewStringSet(),
		Parameters:  make(map[string]string),
		DDDPCommand: NewStringSet(),
		LineNr:      lineNr,
	}
}

// Param returns the raw textual value for key and whether it was present.
func (n *CommandNode) Param(key string) (string, bool) {
	v, ok := n.Parameters[key]
	return v, ok
}

// HasGCode reports whether code (e.g. "G1") is present in GCodes.
func (n *CommandNode) HasGCode(code string) bool {
	return n.GCodes.Has(code)
}
