package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoReceiver is returned when nothing is registered for a target.
var ErrNoReceiver = errors.New("no receiver for target")

// Messenger sends a payload to the method of a named target.
type Messenger interface {
	SendMessage(target, method, payload string) error
}

// MessengerFunc adapts a function to a Messenger.
type MessengerFunc func(target, method, payload string) error

// SendMessage calls f.
func (f MessengerFunc) SendMessage(target, method, payload string) error {
	return f(target, method, payload)
}

// Receiver handles a message sent to the target it is registered under.
type Receiver func(method, payload string)

// Registry is an in-process Messenger that routes by target name.
type Registry struct {
	mu        sync.RWMutex
	receivers map[string]Receiver
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{receivers: make(map[string]Receiver)}
}

// Register sets the receiver for target, replacing any previous one. The
// returned func removes it again.
func (r *Registry) Register(target string, rcv Receiver) (unregister func()) {
	r.mu.Lock()
	r.receivers[target] = rcv
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.receivers, target)
		r.mu.Unlock()
	}
}

// SendMessage calls the receiver registered for target.
func (r *Registry) SendMessage(target, method, payload string) error {
	r.mu.RLock()
	rcv, ok := r.receivers[target]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%q: %w", target, ErrNoReceiver)
	}
	rcv(method, payload)
	return nil
}
