package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCents_JSON(t *testing.T) {
	b, err := json.Marshal(map[string]Cents{"amount": 5155})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":51.55}`, string(b))

	var out struct {
		Amount Cents `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":103.1}`), &out))
	require.Equal(t, Cents(10310), out.Amount)

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"82.50"}`), &out))
	require.Equal(t, Cents(8250), out.Amount)

	require.Error(t, json.Unmarshal([]byte(`{"amount":"abc"}`), &out))
}

func TestCents_String(t *testing.T) {
	require.Equal(t, "0.05", Cents(5).String())
	require.Equal(t, "100.00", Cents(10000).String())
	require.Equal(t, "-1.50", Cents(-150).String())
}

func TestMemberStatus_Computed(t *testing.T) {
	require.True(t, MemberStatusActive.Computed())
	require.True(t, MemberStatusExpired.Computed())
	require.False(t, MemberStatusSuspended.Computed())
	require.False(t, MemberStatusTrial.Computed())
}
