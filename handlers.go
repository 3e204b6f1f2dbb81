package main

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// drainTimeout bounds how long shutdown waits for in-flight handlers.
const drainTimeout = 10 * time.Second

// serveUpdates dispatches every update on its own goroutine until ctx is done
// or the channel closes. stop is called once to end polling; in-flight
// handlers then get drainTimeout to finish.
func serveUpdates(ctx context.Context, app *AppContext, updates tgbotapi.UpdatesChannel, stop func()) {
	var wg sync.WaitGroup
	defer func() {
		if stop != nil {
			stop()
		}
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(drainTimeout):
			app.Log.Warn("Shutdown with handlers still running", "timeout", drainTimeout)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			app.Log.Info("Shutdown requested", "reason", context.Cause(ctx))
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				app.Dispatcher.HandleUpdate(ctx, update)
			}()
		}
	}
}
