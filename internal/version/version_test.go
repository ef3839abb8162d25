package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	old := Version
	Version = v
	t.Cleanup(func() { Version = old })
}

func TestUserAgent(t *testing.T) {
	withVersion(t, "v1.2")
	assert.Equal(t, "pkgsmith/1.2.0", UserAgent())

	withVersion(t, "not-a-version")
	assert.Equal(t, "pkgsmith/0.0.0", UserAgent())
}

func TestAtLeast(t *testing.T) {
	withVersion(t, "0.3.1")

	ok, err := AtLeast(">= 0.2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = AtLeast("> 1.0")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = AtLeast("~~ nonsense")
	assert.Error(t, err)
}
