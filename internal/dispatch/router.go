package dispatch

import (
	"log/slog"
	"sync"

	"cmdbot/internal/command"
)

// Router holds pattern handlers keyed by the topic token of a callback
// payload. Entries live for the life of the process.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]command.CallbackFunc
	log      *slog.Logger
}

// NewRouter creates an empty pattern table.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		handlers: make(map[string]command.CallbackFunc),
		log:      log,
	}
}

// HandleCallback registers fn for topic. Registering a topic again replaces
// the previous handler.
func (r *Router) HandleCallback(topic string, fn command.CallbackFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	_, replaced := r.handlers[topic]
	r.handlers[topic] = fn
	r.mu.Unlock()
	if replaced {
		r.log.Debug("Callback handler replaced", "topic", topic)
	}
}

// Lookup returns the handler registered for topic.
func (r *Router) Lookup(topic string) (command.CallbackFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[topic]
	return fn, ok
}

// Len returns the number of registered topics.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
