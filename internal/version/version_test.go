package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetJetVersion(t *testing.T) {
	// A source checkout carries no release tag, so the fallback applies.
	require.Equal(t, Default, GetJetVersion())
}
