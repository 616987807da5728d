package canalsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncplot7go/ncengine/internal/domain"
	ncerrors "github.com/ncplot7go/ncengine/internal/domain/errors"
)

func waitNode(mCode int, pParam string) *domain.CommandNode {
	n := domain.NewCommandNode(1)
	n.Parameters["M"] = itoa(mCode)
	if pParam != "" {
		n.Parameters["P"] = pParam
	}
	return n
}

func itoa(v int) string {
	// small local helper: the package under test has no exported int->string
	// conversion and strconv would be overkill for these fixed test values.
	digits := "0123456789"
	if v == 0 {
		return "0"
	}
	out := []byte{}
	for v > 0 {
		out = append([]byte{digits[v%10]}, out...)
		v /= 10
	}
	return string(out)
}

func TestGroupFor_12GroupCodes(t *testing.T) {
	assert.Equal(t, "12", GroupFor(40, 0, false))
	assert.Equal(t, "12", GroupFor(41, 0, false))
	assert.Equal(t, "12", GroupFor(82, 0, false))
	assert.Equal(t, "12", GroupFor(83, 0, false))
}

func TestGroupFor_13GroupCodes(t *testing.T) {
	assert.Equal(t, "13", GroupFor(131, 0, false))
	assert.Equal(t, "13", GroupFor(133, 0, false))
}

func TestGroupFor_HighCodeDefaultsTo123WithoutP(t *testing.T) {
	assert.Equal(t, "123", GroupFor(250, 0, false))
}

func TestGroupFor_HighCodeWithPSelectsGroup(t *testing.T) {
	assert.Equal(t, "12", GroupFor(250, 12, true))
	assert.Equal(t, "13", GroupFor(250, 13, true))
	assert.Equal(t, "23", GroupFor(250, 23, true))
	assert.Equal(t, "123", GroupFor(250, 123, true))
}

func TestGroupFor_POutsideKnownValuesFallsBackTo123(t *testing.T) {
	assert.Equal(t, "123", GroupFor(250, 99, true))
}

func TestGroupFor_CodeOutsideAnyRangeHasNoGroup(t *testing.T) {
	assert.Equal(t, "", GroupFor(5, 0, false))
	assert.Equal(t, "", GroupFor(999, 0, false))
}

func TestSynchronize_CanalCountMismatchRaisesCode201(t *testing.T) {
	paths := [][]domain.ToolPathEntry{{{Duration: 1}}}
	nodes := [][]*domain.CommandNode{{waitNode(40, "")}, {waitNode(40, "")}}

	err := Synchronize(paths, nodes)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, 201, ncErr.Code())
}

func TestSynchronize_UnsupportedCanalCountIsNoop(t *testing.T) {
	paths := [][]domain.ToolPathEntry{{{Duration: 1}}}
	nodes := [][]*domain.CommandNode{{waitNode(40, "")}}

	err := Synchronize(paths, nodes)
	assert.NoError(t, err)
}

func TestSynchronize_TwoCanalMatchingWaitAlignsSlowerCanalsDuration(t *testing.T) {
	paths := [][]domain.ToolPathEntry{
		{{Duration: 2}},
		{{Duration: 5}},
	}
	nodes := [][]*domain.CommandNode{
		{waitNode(40, "")},
		{waitNode(40, "")},
	}

	err := Synchronize(paths, nodes)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, paths[0][0].Duration, 1e-9)
	assert.InDelta(t, 5.0, paths[1][0].Duration, 1e-9)
}

func TestSynchronize_TwoCanalMismatchedWaitCodeRaisesCode202(t *testing.T) {
	paths := [][]domain.ToolPathEntry{
		{{Duration: 1}},
		{{Duration: 1}},
	}
	nodes := [][]*domain.CommandNode{
		{waitNode(40, "")},
		{waitNode(41, "")},
	}

	err := Synchronize(paths, nodes)
	require.Error(t, err)
	ncErr, ok := err.(ncerrors.NCError)
	require.True(t, ok)
	assert.Equal(t, 202, ncErr.Code())
}

func TestSynchronize_ThreeCanalAllGroupAlignsAgainstSlowest(t *testing.T) {
	paths := [][]domain.ToolPathEntry{
		{{Duration: 1}},
		{{Duration: 2}},
		{{Duration: 5}},
	}
	nodes := [][]*domain.CommandNode{
		{waitNode(200, "")},
		{waitNode(200, "")},
		{waitNode(200, "")},
	}

	err := Synchronize(paths, nodes)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, paths[0][0].Duration, 1e-9) // 5 - 1
	assert.InDelta(t, 3.0, paths[1][0].Duration, 1e-9) // 5 - 2
	assert.InDelta(t, 5.0, paths[2][0].Duration, 1e-9) // unchanged: canal 3 was slowest
}

func TestSynchronize_NonWaitBlocksAdvanceIndependently(t *testing.T) {
	plain1 := domain.NewCommandNode(1)
	plain2 := domain.NewCommandNode(1)
	paths := [][]domain.ToolPathEntry{
		{{Duration: 1}},
		{{Duration: 1}},
	}
	nodes := [][]*domain.CommandNode{
		{plain1},
		{plain2},
	}

	err := Synchronize(paths, nodes)
	assert.NoError(t, err)
}
