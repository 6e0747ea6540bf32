package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuardDropsDuplicateDeliveries(t *testing.T) {
	guard, err := NewGuard()
	require.NoError(t, err)

	require.True(t, guard.ShouldProcess(1001))
	require.False(t, guard.ShouldProcess(1001))
	require.True(t, guard.ShouldProcess(1002))
}

func TestGuardDropsDuplicateStringKeys(t *testing.T) {
	guard, err := NewGuard()
	require.NoError(t, err)

	require.True(t, guard.ShouldProcessKey("wamid.abc"))
	require.False(t, guard.ShouldProcessKey("wamid.abc"))
}

func TestGuardTracksBotSentMessages(t *testing.T) {
	guard, err := NewGuard()
	require.NoError(t, err)

	require.False(t, guard.WasSentByBot(55))
	guard.MarkSent(55)
	require.True(t, guard.WasSentByBot(55))

	// sent and processed keys do not collide
	require.True(t, guard.ShouldProcess(55))
}
