package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_KeepsLastOccurrenceOfDuplicateAxisWithinSubcommand(t *testing.T) {
	out := Sanitize("G01 X10 X20 Y5")
	assert.Equal(t, "G01 X20 Y5", out)
}

func TestSanitize_AppliesIndependentlyPerSemicolonSubcommand(t *testing.T) {
	out := Sanitize("X10 X20;Y1 Y2")
	assert.Equal(t, "X20;Y2", out)
}

func TestSanitize_NoDuplicatesLeavesSubcommandUnchanged(t *testing.T) {
	out := Sanitize("G01 X10 Y5 Z3")
	assert.Equal(t, "G01 X10 Y5 Z3", out)
}

func TestSanitize_IJKAreTreatedAsAxisTokensToo(t *testing.T) {
	out := Sanitize("G02 X10 I1 I2 J3")
	assert.Equal(t, "G02 X10 I2 J3", out)
}

func TestSanitize_NegativeAxisValuesAreRecognized(t *testing.T) {
	out := Sanitize("X-5 X-10")
	assert.Equal(t, "X-10", out)
}

func TestSanitize_EmptySubcommandTrimsToEmpty(t *testing.T) {
	out := Sanitize("G01 X10;;G02 Y5")
	assert.Equal(t, "G01 X10;;G02 Y5", out)
}

func TestSanitize_NeverCalledFromParseDuplicatesStillRaiseThere(t *testing.T) {
	// Sanitize is an HTTP-boundary helper; Parse itself still raises on a
	// duplicate axis token rather than silently keeping the last one.
	_, err := Parse("X10 X20", 1)
	assert.Error(t, err)
}
