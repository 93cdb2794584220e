package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootContextWaitsForWorkers(t *testing.T) {
	ctx, cancel, wait := GetRootContext()
	require.NotNil(t, GetRootWaitGroup(ctx))

	finished := make(chan struct{})
	done := make(chan struct{})
	Track(ctx, done)
	go func() {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		close(finished)
		close(done)
	}()

	cancel()
	wait()

	select {
	case <-finished:
	default:
		t.Fatal("wait returned before the worker finished")
	}
}

func TestTrackOutsideRoot(t *testing.T) {
	assert.Nil(t, GetRootWaitGroup(t.Context()))
	Track(t.Context(), make(chan struct{}))
}
