package policy_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/leash/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
default: 5s
max: 30s
per_op:
  fetch-report: 20s
  health-check: 500ms
  batch-import: 2m
`

func TestParse(t *testing.T) {
	p, err := policy.Parse([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, p.For("unknown-op"))
	assert.Equal(t, 20*time.Second, p.For("fetch-report"))
	assert.Equal(t, 500*time.Millisecond, p.For("health-check"))
	// Per-op values are clamped to the ceiling.
	assert.Equal(t, 30*time.Second, p.For("batch-import"))
}

func TestParse_NoCeiling(t *testing.T) {
	p, err := policy.Parse([]byte("default: 1s\nper_op:\n  big: 10m\n"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, p.For("big"))
}

func TestParse_Invalid(t *testing.T) {
	t.Run("Missing Default", func(t *testing.T) {
		_, err := policy.Parse([]byte("per_op:\n  x: 1s\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default")
	})

	t.Run("Bad Duration", func(t *testing.T) {
		_, err := policy.Parse([]byte("default: soon\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "soon")
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	p, err := policy.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, p.For("anything"))

	_, err = policy.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
