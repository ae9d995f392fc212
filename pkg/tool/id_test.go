package tool

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDV7(t *testing.T) {
	a, b := GenerateUUIDV7(), GenerateUUIDV7()
	require.NotEqual(t, a, b)
	u, err := uuid.Parse(a)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(7), u.Version())
}

func TestPrefixedKey(t *testing.T) {
	k := PrefixedKey("cash")
	require.True(t, strings.HasPrefix(k, "cash:"))
	_, err := uuid.Parse(strings.TrimPrefix(k, "cash:"))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(PrefixedKey("manual:"), "manual:"))
	require.NotContains(t, PrefixedKey("manual:"), "::")
}
