package eventpubsub

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub(t *testing.T) {
	var completed int64
	onProgress := func(p BootstrapProgress) {
		atomic.AddInt64(&completed, int64(p.Completed))
	}

	require.NoError(t, Subscribe(BootstrapReplicationDoneEvent, onProgress))

	for i := 1; i <= 4; i++ {
		Publish(BootstrapReplicationDoneEvent, BootstrapProgress{RunID: "a", Completed: i, Replications: 4})
	}

	WaitAsync()
	assert.Equal(t, int64(10), atomic.LoadInt64(&completed))

	require.NoError(t, Unsubscribe(BootstrapReplicationDoneEvent, onProgress))

	Publish(BootstrapReplicationDoneEvent, BootstrapProgress{RunID: "a", Completed: 100})
	WaitAsync()
	assert.Equal(t, int64(10), atomic.LoadInt64(&completed))
}
