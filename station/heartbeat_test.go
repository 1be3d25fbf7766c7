package station

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeartbeatFrames(t *testing.T) {
	var hb Heartbeat

	require.Equal(t, "Aguardando proxima leitura.      16.67 %", hb.Next(waitingPrefix, 16.666))
	require.Equal(t, "Aguardando proxima leitura..     33.33 %", hb.Next(waitingPrefix, 33.333))
	require.Equal(t, "Aguardando proxima leitura...    50.00 %", hb.Next(waitingPrefix, 50))
	require.Equal(t, 0, hb.Frame())
	require.Equal(t, "Lendo oscilacoes.      0.00 %", hb.Next(countingPrefix, 0))
}

func TestHeartbeatWraps(t *testing.T) {
	var hb Heartbeat
	for i := 0; i < 10; i++ {
		hb.Next("x", 0)
		require.Equal(t, (i+1)%3, hb.Frame())
	}
}
