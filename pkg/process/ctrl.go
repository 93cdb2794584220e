package process

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const (
	exitTimeout = 5 * time.Second
)

type CmdCtxKey string

const (
	RootWgKey CmdCtxKey = "__root_wg_key__"
)

func GetRootWaitGroup(ctx context.Context) *sync.WaitGroup {
	if wg, ok := ctx.Value(RootWgKey).(*sync.WaitGroup); ok {
		return wg
	}
	return nil
}

// Track holds process exit until done is closed. It is a no-op outside of a
// root context.
func Track(ctx context.Context, done <-chan struct{}) {
	wg := GetRootWaitGroup(ctx)
	if wg == nil {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-done
	}()
}

// GetRootContext returns a context cancelled on SIGINT or SIGTERM, its cancel
// func and a wait func that blocks until tracked work finishes or exitTimeout
// passes.
func GetRootContext() (context.Context, context.CancelFunc, func()) {
	rootWg := &sync.WaitGroup{}
	// the chat UI reads ctrl+c as a key, the replay server needs the signal
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCtx = context.WithValue(rootCtx, RootWgKey, rootWg)

	waitFn := func() {
		waitDone := make(chan struct{})
		go func() {
			rootWg.Wait()
			close(waitDone)
		}()

		select {
		case <-time.After(exitTimeout):
			slog.Warn("[process] exit timeout, leaving work unfinished", "timeout", exitTimeout)
		case <-waitDone:
		}
	}

	return rootCtx, rootCancel, waitFn
}
