//go:build unix

package listen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileLimit(t *testing.T) {
	soft, hard, err := FileLimit()
	require.NoError(t, err)
	require.Greater(t, soft, uint64(0))
	require.LessOrEqual(t, soft, hard)
}

func TestRaiseFileLimitNeverLowers(t *testing.T) {
	soft, _, err := FileLimit()
	require.NoError(t, err)

	got, err := RaiseFileLimit(1)
	require.NoError(t, err)
	require.Equal(t, soft, got)
}
