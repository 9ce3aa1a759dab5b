package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/spscring/config"
)

const validYAML = `
rings:
  - name: intake
    capacity: 1024
    overflow: block
  - name: outbox
    capacity: 256
    overflow: overwrite
stages:
  - name: relay
    src: intake
    dst: outbox
`

func TestParseValidSpec(t *testing.T) {
	spec, err := config.Parse([]byte(validYAML))
	require.NoError(t, err)
	require.Len(t, spec.Rings, 2)
	require.Len(t, spec.Stages, 1)

	r, ok := spec.Ring("outbox")
	require.True(t, ok)
	require.Equal(t, config.OverflowOverwrite, r.Overflow)
}

func TestParseRejectsUnknownOverflow(t *testing.T) {
	bad := `
rings:
  - name: intake
    capacity: 8
    overflow: explode
stages:
  - name: relay
    src: intake
    dst: intake
`
	_, err := config.Parse([]byte(bad))
	require.Error(t, err)
}

func TestParseRejectsDanglingStageRef(t *testing.T) {
	bad := `
rings:
  - name: intake
    capacity: 8
    overflow: drop
stages:
  - name: relay
    src: intake
    dst: nowhere
`
	_, err := config.Parse([]byte(bad))
	require.Error(t, err)
}

func TestParseRejectsZeroStages(t *testing.T) {
	bad := `
rings:
  - name: intake
    capacity: 8
    overflow: drop
stages: []
`
	_, err := config.Parse([]byte(bad))
	require.Error(t, err)
}
