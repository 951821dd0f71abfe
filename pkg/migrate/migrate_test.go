package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion(" 20260301090800 ")
	require.NoError(t, err)
	assert.EqualValues(t, 20260301090800, v)

	for _, raw := range []string{"", "2026", "20261301090800", "latest"} {
		_, err := ParseVersion(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewRunnerRequiresInputs(t *testing.T) {
	_, err := NewRunner(nil, DefaultDir)
	assert.ErrorContains(t, err, "db is required")
}
