package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatcherPollSkipsWhileRunning(t *testing.T) {
	running := &sync.Mutex{}
	running.Lock()
	defer running.Unlock()

	// a nil client and store panic if the poll gets past the lock
	w := watcher{running: running}
	require.NotPanics(t, func() { w.poll(context.Background()) })
	require.False(t, running.TryLock())
}
