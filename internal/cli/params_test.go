package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/sigmon/internal/errors"
	"github.com/rileyhilliard/sigmon/internal/protocol"
)

func TestParseAssignment(t *testing.T) {
	field, value, err := parseAssignment("threshold=1.5")
	require.NoError(t, err)
	assert.Equal(t, "threshold", field)
	assert.Equal(t, "1.5", value)

	for _, bad := range []string{"threshold", "=1", " =1"} {
		_, _, err := parseAssignment(bad)
		assert.True(t, errors.IsCode(err, errors.ErrParams), bad)
	}
}

func TestApplyAssignments(t *testing.T) {
	p := protocol.DefaultParams()
	require.NoError(t, applyAssignments(&p, []string{"threshold=1.5", "w_macd= 0.25 "}))
	assert.Equal(t, 1.5, p.Threshold)
	assert.Equal(t, 0.25, p.Weights.MACD)
}

func TestApplyAssignmentsRejectsBadInput(t *testing.T) {
	tests := []string{"threshold=abc", "threshold=NaN", "bogus=1"}
	for _, in := range tests {
		p := protocol.DefaultParams()
		err := applyAssignments(&p, []string{in})
		assert.True(t, errors.IsCode(err, errors.ErrParams), in)
	}
}

func TestWriteParamsListsEveryField(t *testing.T) {
	var buf bytes.Buffer
	writeParams(&buf, protocol.DefaultParams())

	for _, name := range protocol.ParamFields {
		assert.Contains(t, buf.String(), name)
	}
}
